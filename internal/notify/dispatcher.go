// Package notify delivers marketplace events to the people they concern.
// Delivery is asynchronous: Notify only enqueues, and failures end in the log.
package notify

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mingunC/renovationPlatform-sub000/internal/marketplace"
	"github.com/mingunC/renovationPlatform-sub000/pkg/logger"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// Directory resolves an account id to a contact address.
type Directory interface {
	ContactEmail(ctx context.Context, accountID int64) (string, error)
}

type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Workers     int
	QueueSize   int
	MaxRetries  uint64
	BaseBackoff time.Duration
}

type job struct {
	event     marketplace.Event
	requestID string
}

type Dispatcher struct {
	cfg       Config
	dir       Directory
	sender    Sender
	templates *Templates
	queue     chan job
	dropped   atomic.Uint64
	delivered atomic.Uint64
}

func NewDispatcher(cfg Config, dir Directory, sender Sender) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 500 * time.Millisecond
	}
	return &Dispatcher{
		cfg:       cfg,
		dir:       dir,
		sender:    sender,
		templates: DefaultTemplates(),
		queue:     make(chan job, cfg.QueueSize),
	}
}

// Notify implements marketplace.Notifier. It never blocks: when the queue is
// full the event is dropped and logged.
func (d *Dispatcher) Notify(ctx context.Context, e marketplace.Event) {
	requestID, _ := ctx.Value(logger.RequestIDKey).(string)
	select {
	case d.queue <- job{event: e, requestID: requestID}:
	default:
		d.dropped.Add(1)
		logger.Warn(ctx, "notification queue full, dropping event", "type", e.Type, "request", e.RequestID)
	}
}

// Run starts the workers and blocks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		g.Go(func() error {
			d.work(gctx)
			return nil
		})
	}
	return g.Wait()
}

func (d *Dispatcher) Dropped() uint64   { return d.dropped.Load() }
func (d *Dispatcher) Delivered() uint64 { return d.delivered.Load() }

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-d.queue:
			jctx := ctx
			if j.requestID != "" {
				jctx = context.WithValue(ctx, logger.RequestIDKey, j.requestID)
			}
			d.deliver(jctx, j.event)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, e marketplace.Event) {
	for _, accountID := range e.Recipients {
		to, err := d.dir.ContactEmail(ctx, accountID)
		if err != nil {
			logger.Warn(ctx, "no contact for notification recipient", "account", accountID, "type", e.Type, "error", err)
			continue
		}
		msg, err := d.templates.Render(e, to)
		if err != nil {
			logger.Error(ctx, "render notification", "type", e.Type, "error", err)
			return
		}

		backoff := retry.WithMaxRetries(d.cfg.MaxRetries, retry.NewExponential(d.cfg.BaseBackoff))
		err = retry.Do(ctx, backoff, func(ctx context.Context) error {
			if err := d.sender.Send(ctx, msg); err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil {
			logger.Error(ctx, "notification delivery failed", "type", e.Type, "request", e.RequestID, "to", to, "error", err)
			continue
		}
		d.delivered.Add(1)
		logger.Debug(ctx, "notification delivered", "type", e.Type, "request", e.RequestID, "to", to)
	}
}
