package domain

import "time"

// ImpersonationSession is the ephemeral overlay of a target identity onto an
// actor's authenticated session. The actor's real identity is never discarded,
// only shadowed; stopping the session is always possible from the actor side.
type ImpersonationSession struct {
	ActorID   UserID
	TargetID  UserID
	StartedAt time.Time
}
