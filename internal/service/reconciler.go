package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/domain"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/metrics"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/repository"
)

// maxCASAttempts bounds the read-validate-write loop under contention;
// past it the caller gets ErrConflict and the provider retries the
// delivery, which is safe because applied events are fingerprinted.
const maxCASAttempts = 3

var ErrConflict = errors.New("transient conflict, retry delivery")

// OrderStore is the slice of the order repository the reconciler needs.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	GetOrderByShopifyOrderID(ctx context.Context, shopifyOrderID string) (*domain.Order, error)
	GetOrderByQikinkOrderID(ctx context.Context, qikinkOrderID string) (*domain.Order, error)
	CreateOrder(ctx context.Context, order *domain.Order) error
	UpdateOrderVersioned(ctx context.Context, order *domain.Order) error
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *domain.Payment) error
	GetPaymentByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus, providerPaymentID string) error
}

type EventStore interface {
	WasApplied(ctx context.Context, fingerprint string) (bool, error)
	MarkApplied(ctx context.Context, fingerprint string, ev domain.CanonicalEvent) error
}

// QikinkClient creates print-fulfillment orders downstream.
type QikinkClient interface {
	CreateOrder(ctx context.Context, req *domain.QikinkOrderRequest) (*domain.QikinkOrderResult, error)
}

// Dispatcher receives the side effects owed by an applied transition.
// Implementations must fire each effect at most once per fingerprint.
type Dispatcher interface {
	Dispatch(effects []SideEffect)
}

// TransitionProducer publishes applied transitions and queued sync
// retries to the event stream.
type TransitionProducer interface {
	PublishTransition(ctx context.Context, t Transition) error
	PublishSyncRetry(ctx context.Context, orderID string, req *domain.QikinkOrderRequest, reason string) error
}

type EffectKind string

const (
	EffectConfirmationEmail EffectKind = "order_confirmation_email"
	EffectShippingEmail     EffectKind = "shipping_notification_email"
)

// SideEffect is owed by a specific transition, keyed by the event
// fingerprint so duplicate deliveries never duplicate effects.
type SideEffect struct {
	Kind        EffectKind
	Fingerprint string
	Order       domain.Order
}

// Transition is the outcome of reconciling one webhook delivery.
type Transition struct {
	Applied     bool                 `json:"applied"`
	OrderID     string               `json:"order_id"`
	Provider    domain.Provider      `json:"provider"`
	Fingerprint string               `json:"fingerprint"`
	FromStatus  domain.OrderStatus   `json:"from_status,omitempty"`
	ToStatus    domain.OrderStatus   `json:"to_status,omitempty"`
	FromPayment domain.PaymentStatus `json:"from_payment,omitempty"`
	ToPayment   domain.PaymentStatus `json:"to_payment,omitempty"`
	RawStatus   string               `json:"raw_status"`
	Effects     []SideEffect         `json:"-"`
}

// Reconciler merges inbound webhook claims into the authoritative order
// record: resolve, dedup, validate against the transition graph, commit
// with compare-and-swap, then hand side effects to the dispatcher.
type Reconciler struct {
	orders     OrderStore
	payments   PaymentStore
	events     EventStore
	qikink     QikinkClient
	dispatcher Dispatcher
	producer   TransitionProducer
	locks      *keyLock
	logger     *zap.Logger
}

func NewReconciler(
	orders OrderStore,
	payments PaymentStore,
	events EventStore,
	qikink QikinkClient,
	dispatcher Dispatcher,
	producer TransitionProducer,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		orders:     orders,
		payments:   payments,
		events:     events,
		qikink:     qikink,
		dispatcher: dispatcher,
		producer:   producer,
		locks:      newKeyLock(),
		logger:     logger,
	}
}

// Reconcile applies one canonical event. ErrOrderNotFound from resolution
// propagates so the endpoint can acknowledge-and-drop; ErrConflict
// surfaces bounded CAS exhaustion. Every other outcome, including stale
// and duplicate deliveries, is a successful no-op.
func (r *Reconciler) Reconcile(ctx context.Context, ev domain.CanonicalEvent) (Transition, error) {
	order, err := r.resolve(ctx, ev)
	if err != nil {
		return Transition{}, err
	}

	r.locks.Lock(order.OrderID)
	t, syncReq, err := r.reconcileLocked(ctx, order, ev)
	r.locks.Unlock(order.OrderID)
	if err != nil {
		return t, err
	}

	if t.Applied {
		metrics.TransitionsApplied.Inc()
		if err := r.producer.PublishTransition(ctx, t); err != nil {
			// Audit stream is best-effort; the transition is committed.
			r.logger.Error("failed to publish transition",
				zap.String("order_id", t.OrderID),
				zap.Error(err))
		}
		if len(t.Effects) > 0 {
			r.dispatcher.Dispatch(t.Effects)
		}
		// Network I/O happens outside the order lock.
		if syncReq != nil {
			r.syncToQikink(ctx, t.OrderID, syncReq)
		}
	}
	return t, nil
}

// resolve finds the canonical order for the event's foreign keys.
func (r *Reconciler) resolve(ctx context.Context, ev domain.CanonicalEvent) (*domain.Order, error) {
	switch ev.Provider {
	case domain.ProviderShopify:
		order, err := r.orders.GetOrderByShopifyOrderID(ctx, ev.ExternalOrderID)
		if errors.Is(err, repository.ErrOrderNotFound) && ev.ExternalRefID != "" {
			return r.orders.GetOrder(ctx, ev.ExternalRefID)
		}
		return order, err

	case domain.ProviderQikink:
		order, err := r.orders.GetOrderByQikinkOrderID(ctx, ev.ExternalOrderID)
		if errors.Is(err, repository.ErrOrderNotFound) && ev.ExternalRefID != "" {
			return r.orders.GetOrderByShopifyOrderID(ctx, ev.ExternalRefID)
		}
		return order, err

	case domain.ProviderRazorpay:
		// The receipt is only trusted as an internal order id when a
		// payment record was created for that order at initiation time.
		if ev.ExternalRefID == "" {
			return nil, repository.ErrOrderNotFound
		}
		if _, err := r.payments.GetPaymentByOrderID(ctx, ev.ExternalRefID); err != nil {
			if errors.Is(err, repository.ErrPaymentNotFound) {
				return nil, repository.ErrOrderNotFound
			}
			return nil, err
		}
		return r.orders.GetOrder(ctx, ev.ExternalRefID)

	default:
		return nil, fmt.Errorf("unknown provider %q", ev.Provider)
	}
}

func (r *Reconciler) reconcileLocked(ctx context.Context, order *domain.Order, ev domain.CanonicalEvent) (Transition, *domain.QikinkOrderRequest, error) {
	fingerprint := ev.Fingerprint()
	t := Transition{
		OrderID:     order.OrderID,
		Provider:    ev.Provider,
		Fingerprint: fingerprint,
		RawStatus:   ev.RawStatus,
	}

	applied, err := r.events.WasApplied(ctx, fingerprint)
	if err != nil {
		return t, nil, err
	}
	if applied {
		r.logger.Info("duplicate webhook delivery ignored",
			zap.String("order_id", order.OrderID),
			zap.String("provider", string(ev.Provider)),
			zap.String("fingerprint", fingerprint))
		return t, nil, nil
	}

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		next := *order
		moveOrder := ev.OrderStatus != "" && domain.CanTransitionOrder(order.OrderStatus, ev.OrderStatus)
		movePayment := ev.PaymentStatus != "" && domain.CanTransitionPayment(order.PaymentStatus, ev.PaymentStatus)

		if !moveOrder && !movePayment {
			// Regression, repeat, or already-satisfied target: accepted
			// as a no-op, never an error.
			r.logger.Info("stale transition ignored",
				zap.String("order_id", order.OrderID),
				zap.String("current_status", string(order.OrderStatus)),
				zap.String("requested_status", string(ev.OrderStatus)),
				zap.String("provider", string(ev.Provider)))
			return t, nil, nil
		}

		t.FromStatus = order.OrderStatus
		t.FromPayment = order.PaymentStatus
		if moveOrder {
			next.OrderStatus = ev.OrderStatus
		}
		if movePayment {
			next.PaymentStatus = ev.PaymentStatus
		}
		switch ev.Provider {
		case domain.ProviderShopify:
			next.ShopifyOrderID = ev.ExternalOrderID
		case domain.ProviderQikink:
			next.QikinkOrderID = ev.ExternalOrderID
			next.QikinkStatus = ev.RawStatus
		}
		if !ev.Tracking.Empty() {
			next.Tracking = ev.Tracking
		}

		err := r.orders.UpdateOrderVersioned(ctx, &next)
		if errors.Is(err, repository.ErrVersionConflict) {
			fresh, readErr := r.orders.GetOrder(ctx, order.OrderID)
			if readErr != nil {
				return t, nil, readErr
			}
			order = fresh
			continue
		}
		if err != nil {
			return t, nil, err
		}

		t.Applied = true
		t.ToStatus = next.OrderStatus
		t.ToPayment = next.PaymentStatus
		t.Effects = effectsFor(t, next, fingerprint)

		if movePayment {
			if err := r.payments.UpdatePaymentStatus(ctx, order.OrderID, next.PaymentStatus, ev.ProviderPaymentID); err != nil {
				// Orders confirmed through Shopify checkout have no
				// standalone payment record; that is not a fault.
				if !errors.Is(err, repository.ErrPaymentNotFound) {
					r.logger.Error("failed to update payment record",
						zap.String("order_id", order.OrderID),
						zap.Error(err))
				}
			}
		}

		if err := r.events.MarkApplied(ctx, fingerprint, ev); err != nil &&
			!errors.Is(err, repository.ErrEventAlreadyApplied) {
			r.logger.Error("failed to record event fingerprint",
				zap.String("fingerprint", fingerprint),
				zap.Error(err))
		}

		var syncReq *domain.QikinkOrderRequest
		if ev.SyncToQikink && next.QikinkOrderID == "" {
			syncReq = ev.ShippingInfo
		}

		r.logger.Info("transition applied",
			zap.String("order_id", order.OrderID),
			zap.String("provider", string(ev.Provider)),
			zap.String("from", string(t.FromStatus)),
			zap.String("to", string(t.ToStatus)),
			zap.String("payment_from", string(t.FromPayment)),
			zap.String("payment_to", string(t.ToPayment)))
		return t, syncReq, nil
	}

	metrics.TransitionConflicts.Inc()
	return t, nil, ErrConflict
}

// effectsFor computes the notifications owed by this specific transition:
// entering CONFIRMED owes one confirmation email, entering SHIPPED owes
// one shipping notification. Re-entering a state owes nothing because the
// transition graph forbids re-entry.
func effectsFor(t Transition, order domain.Order, fingerprint string) []SideEffect {
	var effects []SideEffect
	if t.ToStatus == domain.OrderStatusConfirmed && t.FromStatus != domain.OrderStatusConfirmed {
		effects = append(effects, SideEffect{
			Kind:        EffectConfirmationEmail,
			Fingerprint: fingerprint,
			Order:       order,
		})
	}
	if t.ToStatus == domain.OrderStatusShipped && t.FromStatus != domain.OrderStatusShipped {
		effects = append(effects, SideEffect{
			Kind:        EffectShippingEmail,
			Fingerprint: fingerprint,
			Order:       order,
		})
	}
	return effects
}

// syncToQikink creates the downstream print order after the local
// transition has committed. Failure queues a retry; it never unwinds the
// committed payment acknowledgment.
func (r *Reconciler) syncToQikink(ctx context.Context, orderID string, req *domain.QikinkOrderRequest) {
	result, err := r.qikink.CreateOrder(ctx, req)
	if err != nil {
		metrics.QikinkSyncFailures.Inc()
		r.logger.Error("qikink order creation failed, queuing retry",
			zap.String("order_id", orderID),
			zap.Error(err))
		if pubErr := r.producer.PublishSyncRetry(ctx, orderID, req, err.Error()); pubErr != nil {
			r.logger.Error("failed to queue qikink sync retry",
				zap.String("order_id", orderID),
				zap.Error(pubErr))
		}
		return
	}

	r.locks.Lock(orderID)
	defer r.locks.Unlock(orderID)

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		order, err := r.orders.GetOrder(ctx, orderID)
		if err != nil {
			r.logger.Error("failed to re-read order after qikink sync",
				zap.String("order_id", orderID),
				zap.Error(err))
			return
		}
		if order.QikinkOrderID != "" {
			return
		}
		order.QikinkOrderID = result.ID
		order.QikinkStatus = result.Status
		err = r.orders.UpdateOrderVersioned(ctx, order)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			r.logger.Error("failed to store qikink order id",
				zap.String("order_id", orderID),
				zap.Error(err))
		}
		return
	}
	r.logger.Error("gave up storing qikink order id after conflicts",
		zap.String("order_id", orderID))
}
