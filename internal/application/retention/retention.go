package retention

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/praxishq/praxis/internal/application/ports"
)

// Janitor periodically deletes audit log entries older than the retention
// window. It owns its own lifecycle: Start is idempotent, Stop blocks until
// the loop exits. Nothing here reads ambient globals; inject and start it from
// main. retentionDays 0 disables the janitor entirely.
type Janitor struct {
	audit         ports.AuditLogRepository
	retentionDays int
	interval      time.Duration
	log           zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewJanitor creates an audit retention janitor sweeping at the given interval.
func NewJanitor(audit ports.AuditLogRepository, retentionDays int, interval time.Duration, log zerolog.Logger) *Janitor {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Janitor{audit: audit, retentionDays: retentionDays, interval: interval, log: log}
}

// Start launches the sweep loop. Calling Start on a running janitor is a no-op.
func (j *Janitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started || j.retentionDays <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel
	j.done = make(chan struct{})
	j.started = true
	go j.run(ctx)
}

// Stop halts the sweep loop and waits for the in-flight sweep to finish.
// Calling Stop on an idle janitor is a no-op.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.started {
		j.mu.Unlock()
		return
	}
	cancel, done := j.cancel, j.done
	j.started = false
	j.mu.Unlock()

	cancel()
	<-done
}

func (j *Janitor) run(ctx context.Context) {
	defer close(j.done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep(ctx)
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-time.Duration(j.retentionDays) * 24 * time.Hour)
	deleted, err := j.audit.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.log.Warn().Err(err).Msg("audit retention sweep failed")
		return
	}
	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("audit retention sweep")
	}
}
