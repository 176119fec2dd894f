package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	applogger "TickerBot/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Job is a named cron task. Spec uses six fields, seconds first.
type Job struct {
	Name        string
	Spec        string
	Enabled     bool
	Description string
	Run         func(ctx context.Context) error
}

// Entry describes a registered job.
type Entry struct {
	Name string
	Spec string
	Next time.Time
	Prev time.Time
}

// Scheduler runs jobs on robfig/cron in UTC.
type Scheduler struct {
	cron *cron.Cron
	l    *applogger.Logger

	mu      sync.Mutex
	entries map[string]registered
	started bool

	ctx    context.Context
	cancel context.CancelFunc
}

type registered struct {
	id   cron.EntryID
	spec string
}

// New creates a stopped scheduler.
func New(l *applogger.Logger) *Scheduler {
	cl := cronLogger{l: l}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		l:       l,
		entries: make(map[string]registered),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register adds job. Disabled jobs are skipped and report false.
func (s *Scheduler) Register(job Job) (bool, error) {
	if job.Name == "" || job.Run == nil {
		return false, errors.New("scheduler: job needs a name and a run func")
	}
	if !job.Enabled {
		s.l.Debug("cron job disabled", applogger.String("job", job.Name))
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[job.Name]; ok {
		return false, fmt.Errorf("scheduler: job %q already registered", job.Name)
	}

	id, err := s.cron.AddFunc(job.Spec, func() {
		start := time.Now()
		if err := job.Run(s.ctx); err != nil {
			s.l.Error("cron job failed",
				applogger.String("job", job.Name),
				applogger.Error(err),
				applogger.Duration("duration", time.Since(start)),
			)
			return
		}
		s.l.Debug("cron job finished",
			applogger.String("job", job.Name),
			applogger.Duration("duration", time.Since(start)),
		)
	})
	if err != nil {
		return false, fmt.Errorf("scheduler: job %q spec %q: %w", job.Name, job.Spec, err)
	}

	s.entries[job.Name] = registered{id: id, spec: job.Spec}
	s.l.Info("cron job registered",
		applogger.String("job", job.Name),
		applogger.String("spec", job.Spec),
		applogger.String("description", job.Description),
	)
	return true, nil
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done.
// Running jobs see their context cancelled once ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()

	if !started {
		s.cancel()
		return nil
	}

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return fmt.Errorf("scheduler: stop: %w", ctx.Err())
	}
}

// Running reports whether Start was called and Stop has not been.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Len reports the number of registered jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries lists registered jobs sorted by name.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for name, r := range s.entries {
		e := s.cron.Entry(r.id)
		out = append(out, Entry{Name: name, Spec: r.spec, Next: e.Next, Prev: e.Prev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// cronLogger routes robfig/cron's logr-style calls to the app logger.
type cronLogger struct {
	l *applogger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, kv(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(kv(keysAndValues), applogger.Error(err))...)
}

func kv(keysAndValues []interface{}) []applogger.Field {
	fields := make([]applogger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, applogger.Any(fmt.Sprint(keysAndValues[i]), keysAndValues[i+1]))
	}
	return fields
}
