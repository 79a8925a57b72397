package carrier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConnections is the concurrent-connection cap applied when
// no option overrides it.
const DefaultMaxConnections = 2

// scheduledEmail pairs a queued email with its completion handle. The
// Delivery's ULID doubles as the submission identity for bookkeeping
// and logs.
type scheduledEmail struct {
	email    Email
	delivery *Delivery
}

// Mailer accepts email submissions and delivers each over its own
// fresh TCP connection. Submissions are dispatched in FIFO order,
// gated by a bounded connection semaphore; concurrent deliveries may
// complete out of order.
//
// A Mailer is safe for concurrent use.
type Mailer struct {
	config Configuration
	logger TransmissionLogger
	slog   *slog.Logger
	sem    *semaphore.Weighted // nil when uncapped
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	queue  []*scheduledEmail
	closed bool

	wake chan struct{}
	wg   sync.WaitGroup
}

// MailerOption customizes a Mailer.
type MailerOption func(*mailerOptions)

type mailerOptions struct {
	maxConnections int
	uncapped       bool
	logger         TransmissionLogger
	slog           *slog.Logger
	now            func() time.Time
}

// WithMaxConnections bounds the number of simultaneously open
// connections. n must be positive.
func WithMaxConnections(n int) MailerOption {
	return func(o *mailerOptions) {
		o.maxConnections = n
		o.uncapped = false
	}
}

// WithUnboundedConnections removes the connection cap.
func WithUnboundedConnections() MailerOption {
	return func(o *mailerOptions) {
		o.uncapped = true
	}
}

// WithTransmissionLogger installs a logger receiving every SMTP frame.
func WithTransmissionLogger(logger TransmissionLogger) MailerOption {
	return func(o *mailerOptions) {
		o.logger = logger
	}
}

// WithLogger installs a structured logger for delivery lifecycle
// events.
func WithLogger(logger *slog.Logger) MailerOption {
	return func(o *mailerOptions) {
		o.slog = logger
	}
}

// NewMailer creates a Mailer for the given configuration. The
// configuration is snapshotted: later mutation by the caller does not
// affect the Mailer.
func NewMailer(config Configuration, opts ...MailerOption) (*Mailer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	options := mailerOptions{
		maxConnections: DefaultMaxConnections,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if !options.uncapped && options.maxConnections <= 0 {
		return nil, fmt.Errorf("smtp: max connections must be positive, got %d", options.maxConnections)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Mailer{
		config: config.normalized(),
		logger: options.logger,
		slog:   options.slog,
		now:    options.now,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
	}
	if !options.uncapped {
		m.sem = semaphore.NewWeighted(int64(options.maxConnections))
	}

	m.wg.Add(1)
	go m.dispatch()

	return m, nil
}

// Send validates and enqueues an email for delivery, returning its
// completion handle. The email is snapshotted at the call; mutating it
// afterwards does not affect the submission.
func (m *Mailer) Send(email Email) (*Delivery, error) {
	if err := email.Validate(); err != nil {
		return nil, err
	}

	s := &scheduledEmail{email: email, delivery: newDelivery()}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrMailerClosed
	}
	m.queue = append(m.queue, s)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}

	return s.delivery, nil
}

// Close stops accepting submissions, fails all still-queued ones with
// ErrMailerClosed, and waits for in-flight deliveries to finish.
func (m *Mailer) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.wg.Wait()
		return nil
	}
	m.closed = true
	pending := m.queue
	m.queue = nil
	m.mu.Unlock()

	for _, s := range pending {
		s.delivery.complete(ErrMailerClosed)
	}

	m.cancel()
	m.wg.Wait()
	return nil
}

// pop removes the queue head.
func (m *Mailer) pop() *scheduledEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return nil
	}
	s := m.queue[0]
	m.queue = m.queue[1:]
	return s
}

// dispatch runs on a dedicated worker: it pops submissions in FIFO
// order, parks on the semaphore until a connection permit is free, and
// launches one delivery goroutine per submission. Dispatch initiation
// is strictly FIFO; completions may interleave.
func (m *Mailer) dispatch() {
	defer m.wg.Done()

	for {
		s := m.pop()
		if s == nil {
			select {
			case <-m.wake:
				continue
			case <-m.ctx.Done():
				return
			}
		}

		if m.sem != nil {
			if err := m.sem.Acquire(m.ctx, 1); err != nil {
				s.delivery.complete(ErrMailerClosed)
				continue
			}
		}

		m.wg.Add(1)
		go m.deliver(s)
	}
}

// deliver runs one submission over one fresh connection. The semaphore
// permit is released exactly once, success or failure, before the next
// pending submission is considered.
func (m *Mailer) deliver(s *scheduledEmail) {
	defer m.wg.Done()
	if m.sem != nil {
		defer m.sem.Release(1)
	}

	err := runSubmission(&m.config, &s.email, m.logger, m.now)
	s.delivery.complete(err)

	if m.slog != nil {
		if err != nil {
			m.slog.Error("delivery failed",
				slog.String("delivery_id", s.delivery.ID()),
				slog.String("server", m.config.Server.Address()),
				slog.Any("error", err),
			)
		} else {
			m.slog.Debug("delivery completed",
				slog.String("delivery_id", s.delivery.ID()),
				slog.String("server", m.config.Server.Address()),
			)
		}
	}
}
