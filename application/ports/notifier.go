package ports

import (
	"context"
	"time"

	"github.com/alexelgier/minerva/domain/core/valueobjects"
)

// PendingCuration is the notification payload emitted when a workflow parks
// on a human gate.
type PendingCuration struct {
	WorkflowID string                `json:"workflow_id"`
	OwnerUUID  valueobjects.EntityID `json:"owner_uuid"`
	Phase      JournalCurationStatus `json:"phase"`
	ItemCount  int                   `json:"item_count"`
	QueuedAt   time.Time             `json:"queued_at"`
}

// CurationNotifier tells the outside world that items are waiting for a
// human decision. Delivery is best effort; the durable queue is the store.
type CurationNotifier interface {
	NotifyPending(ctx context.Context, n PendingCuration) error
}
