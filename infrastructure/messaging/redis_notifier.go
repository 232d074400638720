// Package messaging publishes curation events. Delivery is best effort:
// the Postgres queue is the durable record, these events only wake up
// dashboards.
package messaging

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/alexelgier/minerva/application/ports"
	pkgerrors "github.com/alexelgier/minerva/pkg/errors"
)

// PendingChannel is the redis channel curation events publish on
const PendingChannel = "minerva.curation.pending"

// RedisNotifier implements ports.CurationNotifier over redis pub/sub
type RedisNotifier struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisNotifier wraps an existing redis client
func NewRedisNotifier(client *redis.Client, logger *zap.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, logger: logger}
}

var _ ports.CurationNotifier = (*RedisNotifier)(nil)

// NotifyPending publishes the pending-curation event as JSON
func (n *RedisNotifier) NotifyPending(ctx context.Context, event ports.PendingCuration) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return pkgerrors.NewInternal("marshal curation event", err)
	}
	if err := n.client.Publish(ctx, PendingChannel, payload).Err(); err != nil {
		return pkgerrors.NewUnavailable("publish curation event", err)
	}
	n.logger.Debug("published curation event",
		zap.String("workflow_id", event.WorkflowID),
		zap.String("phase", string(event.Phase)))
	return nil
}

// NopNotifier discards events; used in tests and when redis is not
// configured.
type NopNotifier struct{}

var _ ports.CurationNotifier = (*NopNotifier)(nil)

// NotifyPending discards the event
func (NopNotifier) NotifyPending(context.Context, ports.PendingCuration) error {
	return nil
}
