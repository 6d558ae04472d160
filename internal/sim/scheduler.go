package sim

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/neurosim/internal/entity"
)

type command struct {
	fn   func(*Session)
	done chan struct{}
}

// Scheduler ticks a session on a fixed wall-clock period. Ticks and user
// intents run in one goroutine, so updates never overlap. The ticker only
// exists while the session runs.
type Scheduler struct {
	session *Session
	period  time.Duration
	logger  *slog.Logger

	cmds   chan command
	frames chan entity.Frame
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once

	started atomic.Bool
	ticks   atomic.Int64
}

func NewScheduler(s *Session, period time.Duration, logger *slog.Logger) *Scheduler {
	if period <= 0 {
		period = DefaultConfig().Period
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{
		session: s,
		period:  period,
		logger:  logger.With("session", s.ID()),
		cmds:    make(chan command),
		frames:  make(chan entity.Frame, 1),
		done:    make(chan struct{}),
	}
}

// Start launches the scheduling goroutine. Later calls are ignored.
func (sc *Scheduler) Start(ctx context.Context) {
	sc.once.Do(func() {
		ctx, sc.cancel = context.WithCancel(ctx)
		sc.started.Store(true)
		go sc.loop(ctx)
	})
}

// Close stops the goroutine and its ticker and waits for both.
func (sc *Scheduler) Close() {
	if !sc.started.Load() {
		return
	}
	sc.cancel()
	<-sc.done
}

// Frames delivers the latest snapshot after every tick or intent. A slow
// reader only ever misses stale frames.
func (sc *Scheduler) Frames() <-chan entity.Frame { return sc.frames }

func (sc *Scheduler) Ticks() int64 { return sc.ticks.Load() }

// Do runs fn on the scheduling goroutine and waits for it.
func (sc *Scheduler) Do(fn func(*Session)) error {
	if !sc.started.Load() {
		return ErrNotStarted
	}
	cmd := command{fn: fn, done: make(chan struct{})}
	select {
	case sc.cmds <- cmd:
	case <-sc.done:
		return ErrClosed
	}
	select {
	case <-cmd.done:
		return nil
	case <-sc.done:
		return ErrClosed
	}
}

func (sc *Scheduler) SetRunning(on bool) error {
	return sc.Do(func(s *Session) { s.SetRunning(on) })
}

func (sc *Scheduler) Reset() error {
	return sc.Do(func(s *Session) { s.Reset() })
}

func (sc *Scheduler) SetParameter(name string, value float64) error {
	var err error
	if derr := sc.Do(func(s *Session) { err = s.SetParameter(name, value) }); derr != nil {
		return derr
	}
	return err
}

func (sc *Scheduler) SelectEntity(id string) (Detail, error) {
	var (
		d   Detail
		err error
	)
	if derr := sc.Do(func(s *Session) { d, err = s.SelectEntity(id) }); derr != nil {
		return Detail{}, derr
	}
	return d, err
}

func (sc *Scheduler) loop(ctx context.Context) {
	defer close(sc.done)

	var (
		ticker *time.Ticker
		tickC  <-chan time.Time
	)
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tickC = nil, nil
		}
	}
	defer stopTicker()

	syncTicker := func() {
		switch {
		case sc.session.Running() && ticker == nil:
			ticker = time.NewTicker(sc.period)
			tickC = ticker.C
		case !sc.session.Running():
			stopTicker()
		}
	}
	syncTicker()

	for {
		select {
		case <-ctx.Done():
			sc.logger.Debug("scheduler stopped", "ticks", sc.ticks.Load())
			return
		case cmd := <-sc.cmds:
			cmd.fn(sc.session)
			close(cmd.done)
			sc.publish()
			syncTicker()
		case <-tickC:
			if sc.session.Tick() {
				sc.ticks.Add(1)
			}
			sc.publish()
			syncTicker()
		}
	}
}

func (sc *Scheduler) publish() {
	f := sc.session.Frame()
	select {
	case sc.frames <- f:
		return
	default:
	}
	select {
	case <-sc.frames:
	default:
	}
	select {
	case sc.frames <- f:
	default:
	}
}
