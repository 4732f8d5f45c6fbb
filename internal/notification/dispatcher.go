package notification

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/metrics"
	"github.com/sagarsonar2508/QR-MARKET-PLACE/internal/service"
)

const maxSeenEffects = 10000

// EmailDispatcher fires notification effects asynchronously so the
// reconciler never holds an order lock across SMTP I/O. Effects are
// deduplicated by fingerprint+kind: a transition owes each effect once,
// no matter how many deliveries requested it.
type EmailDispatcher struct {
	mailer Mailer
	logger *zap.Logger

	mu   sync.Mutex
	seen map[string]struct{}

	queue chan service.SideEffect
	wg    sync.WaitGroup
}

func NewEmailDispatcher(mailer Mailer, logger *zap.Logger) *EmailDispatcher {
	d := &EmailDispatcher{
		mailer: mailer,
		logger: logger,
		seen:   make(map[string]struct{}),
		queue:  make(chan service.SideEffect, 256),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *EmailDispatcher) Dispatch(effects []service.SideEffect) {
	for _, effect := range effects {
		key := effect.Fingerprint + "|" + string(effect.Kind)
		d.mu.Lock()
		if _, dup := d.seen[key]; dup {
			d.mu.Unlock()
			continue
		}
		// The set only needs to cover the provider's dedup horizon.
		if len(d.seen) >= maxSeenEffects {
			d.seen = make(map[string]struct{})
		}
		d.seen[key] = struct{}{}
		d.mu.Unlock()

		select {
		case d.queue <- effect:
		default:
			d.logger.Error("notification queue full, dropping effect",
				zap.String("order_id", effect.Order.OrderID),
				zap.String("kind", string(effect.Kind)))
		}
	}
}

func (d *EmailDispatcher) run() {
	defer d.wg.Done()
	for effect := range d.queue {
		d.fire(effect)
	}
}

func (d *EmailDispatcher) fire(effect service.SideEffect) {
	to := effect.Order.UserEmail
	if to == "" {
		d.logger.Warn("no recipient for notification",
			zap.String("order_id", effect.Order.OrderID),
			zap.String("kind", string(effect.Kind)))
		return
	}

	var err error
	switch effect.Kind {
	case service.EffectConfirmationEmail:
		err = d.mailer.SendOrderConfirmation(to, effect.Order)
	case service.EffectShippingEmail:
		err = d.mailer.SendShippingNotification(to, effect.Order)
	default:
		d.logger.Warn("unknown side effect kind", zap.String("kind", string(effect.Kind)))
		return
	}

	if err != nil {
		metrics.EmailFailuresTotal.Inc()
		d.logger.Error("failed to send notification email",
			zap.String("order_id", effect.Order.OrderID),
			zap.String("kind", string(effect.Kind)),
			zap.Error(err))
		return
	}

	metrics.EmailsSentTotal.WithLabelValues(string(effect.Kind)).Inc()
	d.logger.Info("notification email sent",
		zap.String("order_id", effect.Order.OrderID),
		zap.String("kind", string(effect.Kind)))
}

// Close drains the queue and stops the worker.
func (d *EmailDispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
}
