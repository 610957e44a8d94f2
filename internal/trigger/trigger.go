// Package trigger runs the notification cycles on their schedules: the
// frequent cycle on a fixed interval and the weekly cycle on a cron
// expression.
package trigger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/notify"
)

// Cycle names a scheduled job.
type Cycle string

const (
	CycleFrequent Cycle = "frequent"
	CycleWeekly   Cycle = "weekly"
)

// State represents whether a cycle is currently executing.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateError
)

// Status holds the run state for a single cycle.
type Status struct {
	Cycle   Cycle
	State   State
	Runs    int
	LastRun time.Time
	Last    notify.CycleReport
	Error   error
}

// Runner executes the cycles. *notify.Engine implements it.
type Runner interface {
	RunFrequentCycle(ctx context.Context) (notify.CycleReport, error)
	RunWeeklyCycle(ctx context.Context) (notify.CycleReport, error)
}

// Trigger schedules a Runner. The frequent cycle runs on one goroutine so
// two frequent runs never overlap; weekly runs are skipped while a
// previous weekly run is still going. Cycles run to completion; Stop
// cancels the context they run under.
type Trigger struct {
	runner   Runner
	interval time.Duration
	schedule cron.Schedule
	loc      *time.Location
	logger   *zap.Logger

	statuses  map[Cycle]*Status
	refreshCh chan struct{}
	cancel    context.CancelFunc
	done      chan struct{}
	cron      *cron.Cron
	mu        sync.Mutex
	running   bool
}

// New validates cfg and returns a stopped Trigger.
func New(r Runner, cfg model.TriggerConfig, loc *time.Location, logger *zap.Logger) (*Trigger, error) {
	if cfg.FrequentInterval <= 0 {
		return nil, fmt.Errorf("frequent interval must be positive, got %s", cfg.FrequentInterval)
	}
	schedule, err := cron.ParseStandard(cfg.WeeklySchedule)
	if err != nil {
		return nil, fmt.Errorf("parsing weekly schedule %q: %w", cfg.WeeklySchedule, err)
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Trigger{
		runner:   r,
		interval: cfg.FrequentInterval,
		schedule: schedule,
		loc:      loc,
		logger:   logger,
		statuses: map[Cycle]*Status{
			CycleFrequent: {Cycle: CycleFrequent},
			CycleWeekly:   {Cycle: CycleWeekly},
		},
		refreshCh: make(chan struct{}, 1),
	}, nil
}

// Start launches the frequent loop and the weekly cron job. The frequent
// cycle runs once immediately. Calling Start on a running Trigger is a
// no-op. Cancelling parent, or calling Stop, cancels the context the
// cycles run under.
func (t *Trigger) Start(parent context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	ctx, cancel := context.WithCancel(parent)
	t.cancel = cancel
	t.done = make(chan struct{})

	cl := cronLogger{t.logger.Sugar()}
	t.cron = cron.New(
		cron.WithLocation(t.loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	t.cron.Schedule(t.schedule, cron.FuncJob(func() {
		t.run(ctx, CycleWeekly)
	}))
	t.cron.Start()

	go t.loop(ctx, t.done)
}

// Stop cancels any in-flight runs and waits for them to return.
func (t *Trigger) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	t.cancel()
	done := t.done
	c := t.cron
	t.mu.Unlock()

	<-done
	<-c.Stop().Done()
}

// Refresh asks the frequent loop to run a cycle now. It never blocks; a
// refresh requested while one is already pending is dropped.
func (t *Trigger) Refresh() {
	select {
	case t.refreshCh <- struct{}{}:
	default:
	}
}

// NextWeekly returns when the weekly cycle will next fire after from.
func (t *Trigger) NextWeekly(from time.Time) time.Time {
	return t.schedule.Next(from.In(t.loc))
}

// Statuses returns a snapshot of both cycles' run state.
func (t *Trigger) Statuses() []Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	return []Status{*t.statuses[CycleFrequent], *t.statuses[CycleWeekly]}
}

// loop runs the frequent cycle on every tick until ctx ends.
func (t *Trigger) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.run(ctx, CycleFrequent)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.run(ctx, CycleFrequent)
		case <-t.refreshCh:
			t.run(ctx, CycleFrequent)
		}
	}
}

// run executes one cycle and records the outcome. Cycle errors are logged;
// the schedule keeps going.
func (t *Trigger) run(ctx context.Context, c Cycle) {
	if ctx.Err() != nil {
		return
	}
	t.setState(c, StateRunning)

	var (
		report notify.CycleReport
		err    error
	)
	switch c {
	case CycleFrequent:
		report, err = t.runner.RunFrequentCycle(ctx)
	case CycleWeekly:
		report, err = t.runner.RunWeeklyCycle(ctx)
	}

	if err != nil {
		t.logger.Error("cycle finished with errors",
			zap.String("cycle", string(c)),
			zap.Int("failed_users", report.FailedUsers),
			zap.Error(err))
	}
	t.finish(c, report, err)
}

func (t *Trigger) setState(c Cycle, state State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[c].State = state
}

func (t *Trigger) finish(c Cycle, report notify.CycleReport, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	status := t.statuses[c]
	status.Runs++
	status.LastRun = time.Now()
	status.Last = report
	status.Error = err
	status.State = StateIdle
	if err != nil {
		status.State = StateError
	}
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}

var _ cron.Logger = cronLogger{}
