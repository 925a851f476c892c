package mail

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
)

const sendTimeout = 30 * time.Second

var errDispatcherStopped = errors.New("mail dispatcher stopped")

// Dispatcher queues notifications and delivers them from a fixed worker pool.
// Notify never blocks; a full queue drops the notification.
type Dispatcher struct {
	renderer *Renderer
	sender   Sender
	logger   *zap.Logger
	workers  int

	mu      sync.RWMutex
	queue   chan domain.Notification
	closed  bool
	group   *errgroup.Group
	started bool
}

// NewDispatcher creates a dispatcher with the given queue size and worker count.
func NewDispatcher(renderer *Renderer, sender Sender, queueSize, workers int, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.L()
	}
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		renderer: renderer,
		sender:   sender,
		logger:   logger,
		workers:  workers,
		queue:    make(chan domain.Notification, queueSize),
	}
}

// Start launches the workers. They run until Stop drains the queue.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	d.group = &errgroup.Group{}
	for i := 0; i < d.workers; i++ {
		d.group.Go(d.work)
	}
}

// Notify enqueues n for delivery.
func (d *Dispatcher) Notify(_ context.Context, n domain.Notification) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("mail dropped", zap.String("template", string(n.Template)), zap.Error(errDispatcherStopped))
		return
	}
	select {
	case d.queue <- n:
	default:
		d.logger.Warn("mail dropped, queue full", zap.String("template", string(n.Template)))
	}
}

// Stop closes the queue and waits for in-flight deliveries or ctx expiry.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	group := d.group
	d.mu.Unlock()

	if group == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- group.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) work() error {
	for n := range d.queue {
		d.deliver(n)
	}
	return nil
}

func (d *Dispatcher) deliver(n domain.Notification) {
	msg, err := d.renderer.Render(n)
	if err != nil {
		d.logger.Error("mail render failed", zap.String("template", string(n.Template)), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := d.sender.Send(ctx, msg); err != nil {
		d.logger.Error("mail send failed", zap.String("template", string(n.Template)), zap.Error(err))
		return
	}
	d.logger.Debug("mail sent", zap.String("template", string(n.Template)))
}
