package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/lunari-bot/lunari-telegram-bot/internal/domain"
	"github.com/lunari-bot/lunari-telegram-bot/internal/horoscope"
	"github.com/lunari-bot/lunari-telegram-bot/internal/registry"
)

// Sender is a minimal interface the scheduler needs to send a text message.
// telegram.Router implements this.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Subscribers is the read side of the registry used on every tick.
type Subscribers interface {
	AllSubscribedUsers() []int64
	Get(id int64) (registry.Subscriber, bool)
}

// Config tunes the trigger and the dispatch pool.
type Config struct {
	Spec      string           // cron spec, every minute by default
	Workers   int              // concurrent deliveries
	QueueSize int              // deliveries buffered between a tick and the workers
	Clock     func() time.Time // wall clock; process local time by default
}

// DefaultConfig returns the once-per-minute configuration.
func DefaultConfig() Config {
	return Config{
		Spec:      "* * * * *",
		Workers:   4,
		QueueSize: 256,
		Clock:     time.Now,
	}
}

type delivery struct {
	tick   string
	chatID int64
	sign   domain.Sign
	now    time.Time
}

// Scheduler matches subscribers against the current minute and dispatches
// their daily horoscope. A missed minute is not caught up.
type Scheduler struct {
	subs   Subscribers
	lookup horoscope.Lookup
	sender Sender
	log    *zap.Logger
	cfg    Config

	cron *cron.Cron
	jobs chan delivery
	wg   sync.WaitGroup

	mu     sync.RWMutex // guards closed against sends on jobs
	closed bool

	// runCtx bounds dispatches; canceled when Stop gives up waiting.
	runCtx context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	stopOnce  sync.Once
}

// New creates a new Scheduler. Zero config fields fall back to DefaultConfig.
func New(subs Subscribers, lookup horoscope.Lookup, sender Sender, log *zap.Logger, cfg Config) *Scheduler {
	def := DefaultConfig()
	if cfg.Spec == "" {
		cfg.Spec = def.Spec
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	runCtx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		subs:   subs,
		lookup: lookup,
		sender: sender,
		log:    log,
		cfg:    cfg,
		jobs:   make(chan delivery, cfg.QueueSize),
		runCtx: runCtx,
		cancel: cancel,
	}
}

// Start launches the dispatch workers and the cron trigger.
// Ticks never overlap: a late tick waits for the previous one to finish enqueueing.
func (s *Scheduler) Start() error {
	var err error
	s.startOnce.Do(func() {
		s.cron = cron.New(cron.WithChain(
			cron.Recover(cronLogger{s.log}),
			cron.DelayIfStillRunning(cronLogger{s.log}),
		))
		if _, err = s.cron.AddFunc(s.cfg.Spec, func() {
			s.Tick(s.runCtx, s.cfg.Clock())
		}); err != nil {
			err = fmt.Errorf("schedule %q: %w", s.cfg.Spec, err)
			return
		}
		s.startWorkers()
		s.cron.Start()
		s.log.Info("scheduler started",
			zap.String("spec", s.cfg.Spec),
			zap.Int("workers", s.cfg.Workers),
		)
	})
	return err
}

// Stop prevents further ticks, lets an in-flight tick finish, and drains the
// queued deliveries. If ctx expires first, pending sends are canceled.
func (s *Scheduler) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.log.Info("scheduler stopping")
		if s.cron != nil {
			cronDone := s.cron.Stop().Done()
			select {
			case <-cronDone:
			case <-ctx.Done():
				s.cancel()
				<-cronDone
			}
		}
		s.mu.Lock()
		s.closed = true
		close(s.jobs)
		s.mu.Unlock()

		drained := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-ctx.Done():
			err = ctx.Err()
		}
		s.cancel()
		s.log.Info("scheduler stopped")
	})
	return err
}

func (s *Scheduler) startWorkers() {
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	for d := range s.jobs {
		s.deliver(s.runCtx, d)
	}
}

// Tick performs one matching pass for the minute of now and enqueues a
// delivery per due subscriber. now is used for matching, the date key and the
// day-month phrase alike. Returns the number of deliveries enqueued.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0
	}

	ticksTotal.Inc()
	tickID := uuid.NewString()
	at := domain.TimeOfDayOf(now)
	log := s.log.With(zap.String("tick", tickID), zap.String("at", at.String()))

	enqueued := 0
	for _, id := range s.subs.AllSubscribedUsers() {
		sub, ok := s.subs.Get(id)
		if !ok {
			continue
		}
		if !sub.DueAt(at) {
			if sub.ScheduledAt(at) && sub.Sign == nil {
				recordSkipped("no_sign")
				log.Debug("due subscriber has no sign", zap.Int64("chatID", id))
			}
			continue
		}
		d := delivery{tick: tickID, chatID: id, sign: *sub.Sign, now: now}
		select {
		case s.jobs <- d:
			enqueued++
		case <-ctx.Done():
			log.Warn("tick aborted while enqueueing", zap.Error(ctx.Err()), zap.Int("enqueued", enqueued))
			return enqueued
		case <-s.runCtx.Done():
			log.Warn("scheduler stopped while enqueueing", zap.Int("enqueued", enqueued))
			return enqueued
		}
	}
	if enqueued > 0 {
		log.Info("deliveries enqueued", zap.Int("count", enqueued))
	}
	return enqueued
}

// deliver looks up and sends one horoscope. Failures are logged and counted,
// never retried, and never escape the worker.
func (s *Scheduler) deliver(ctx context.Context, d delivery) {
	start := time.Now()
	log := s.log.With(zap.String("tick", d.tick), zap.Int64("chatID", d.chatID), zap.String("sign", d.sign.String()))

	defer func() {
		if r := recover(); r != nil {
			log.Error("delivery panicked", zap.Any("panic", r))
			recordDelivery("failed", time.Since(start))
		}
	}()

	date := domain.DateKey(d.now)
	status := "sent"
	text, err := s.lookup.Lookup(ctx, d.sign, date)
	if p, ok := horoscope.Placeholder(err, d.sign, date); ok {
		status = "horoscope_missing"
		log.Warn("horoscope not found", zap.String("date", date))
		text, err = p, nil
	}
	if err != nil {
		log.Error("horoscope lookup failed", zap.Error(err))
		recordDelivery("failed", time.Since(start))
		return
	}

	if err := s.sender.SendMessage(ctx, d.chatID, horoscope.DeliveryMessage(d.sign, d.now, text)); err != nil {
		log.Error("send failed", zap.Error(err))
		recordDelivery("failed", time.Since(start))
		return
	}
	recordDelivery(status, time.Since(start))
	log.Debug("delivered", zap.String("status", status))
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ log *zap.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
