package events

import (
	"time"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/service"
)

// TransitionAppliedEvent is the audit record of one effective
// reconciliation, published to the order-transitions topic.
type TransitionAppliedEvent struct {
	EventID    string             `json:"event_id"`
	OrderID    string             `json:"order_id"`
	Provider   string             `json:"provider"`
	Transition service.Transition `json:"transition"`
	Timestamp  time.Time          `json:"timestamp"`
}

// QikinkSyncRetryEvent queues a failed downstream order creation for
// replay. The local transition that owed the sync is already committed
// and is never unwound.
type QikinkSyncRetryEvent struct {
	EventID   string                     `json:"event_id"`
	OrderID   string                     `json:"order_id"`
	Request   *domain.QikinkOrderRequest `json:"request"`
	Reason    string                     `json:"reason"`
	Timestamp time.Time                  `json:"timestamp"`
}
