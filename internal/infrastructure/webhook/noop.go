package webhook

import (
	"context"

	"github.com/praxishq/praxis/internal/application/ports"
)

// NoopEmitter drops events. Used when no webhook endpoint is configured.
type NoopEmitter struct{}

// NewNoopEmitter returns an emitter that does nothing.
func NewNoopEmitter() *NoopEmitter { return &NoopEmitter{} }

// Emit implements ports.WebhookEmitter.
func (NoopEmitter) Emit(ctx context.Context, event ports.AuditEvent) error { return nil }

var _ ports.WebhookEmitter = (*NoopEmitter)(nil)
