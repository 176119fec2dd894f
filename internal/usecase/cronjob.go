package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	domrepo "TickerBot/internal/domain/repository"
	"TickerBot/internal/service/notifier"
	applogger "TickerBot/pkg/logger"
	"TickerBot/pkg/scheduler"
	xutil "TickerBot/pkg/util"

	"github.com/google/uuid"
)

// Job names double as the /cronjob/:interval path values.
const (
	JobM1  = "m1"
	JobM10 = "m10"
	JobH1  = "h1"
	JobD1  = "d1"
)

// CronJob describes one periodic task.
type CronJob struct {
	Name             string
	Spec             string
	Enabled          bool
	ProviderInterval string // empty for notify-only jobs
	SettingKey       string
	Description      string
}

// DefaultCronJobs is the schedule in UTC. m1 and m10 stay dormant.
var DefaultCronJobs = []CronJob{
	{Name: JobM1, Spec: "0 * * * * *", Description: "heartbeat every minute"},
	{Name: JobM10, Spec: "5 */10 * * * *", ProviderInterval: "1h", SettingKey: "cronjob_m10_updated_at", Description: "hourly bars every 10 minutes"},
	{Name: JobH1, Spec: "20 0 * * * *", Enabled: true, ProviderInterval: "1h", SettingKey: "cronjob_h1_updated_at", Description: "hourly bars"},
	{Name: JobD1, Spec: "0 1 0 * * *", Enabled: true, ProviderInterval: "1d", SettingKey: "cronjob_d1_updated_at", Description: "daily bars"},
}

// Refresher is the part of RefreshUseCase the cron jobs need.
type Refresher interface {
	Refresh(ctx context.Context, ticker, interval string) (*RefreshResult, error)
}

// Notifier is the part of notifier.Hub the cron jobs need.
type Notifier interface {
	Go(channel, text string)
}

// CronJobs runs the periodic refreshes for the configured tickers.
type CronJobs struct {
	jobs     map[string]CronJob
	order    []string
	tickers  []string
	refresh  Refresher
	settings domrepo.SettingRepository
	notify   Notifier
	metrics  domrepo.Metrics
	l        *applogger.Logger
	now      func() time.Time
}

func NewCronJobs(
	tickers []string,
	refresh Refresher,
	settings domrepo.SettingRepository,
	notify Notifier,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *CronJobs {
	cj := &CronJobs{
		jobs:     make(map[string]CronJob, len(DefaultCronJobs)),
		tickers:  tickers,
		refresh:  refresh,
		settings: settings,
		notify:   notify,
		metrics:  metrics,
		l:        l,
		now:      time.Now,
	}
	for _, j := range DefaultCronJobs {
		cj.jobs[j.Name] = j
		cj.order = append(cj.order, j.Name)
	}
	return cj
}

// WithClock replaces the clock, for tests.
func (cj *CronJobs) WithClock(now func() time.Time) *CronJobs {
	cj.now = now
	return cj
}

// Tickers returns the configured ticker list.
func (cj *CronJobs) Tickers() []string { return cj.tickers }

// Register adds the enabled jobs to s when enabled is true and reports how
// many were registered. The decision is made once at startup.
func (cj *CronJobs) Register(s *scheduler.Scheduler, enabled bool) (int, error) {
	if !enabled {
		cj.l.Info("cronjob is disabled")
		return 0, nil
	}

	cj.l.Info("cronjob is enabled", applogger.Time("at", cj.now().UTC()))
	n := 0
	for _, name := range cj.order {
		job := cj.jobs[name]
		ok, err := s.Register(scheduler.Job{
			Name:        job.Name,
			Spec:        job.Spec,
			Enabled:     job.Enabled,
			Description: job.Description,
			Run:         func(ctx context.Context) error { return cj.Run(ctx, job.Name) },
		})
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// RunSummary reports one execution of a job.
type RunSummary struct {
	RunID   string
	Job     string
	Closes  map[string]string
	Failed  []string
	Started time.Time
}

// Run executes job name synchronously, regardless of whether it is scheduled.
// A failing ticker is logged and does not stop the others.
func (cj *CronJobs) Run(ctx context.Context, name string) error {
	_, err := cj.run(ctx, name)
	return err
}

func (cj *CronJobs) run(ctx context.Context, name string) (*RunSummary, error) {
	job, ok := cj.jobs[name]
	if !ok {
		return nil, fmt.Errorf("cronjob %q: %w", name, domrepo.ErrNotFound)
	}

	sum := &RunSummary{
		RunID:   uuid.NewString(),
		Job:     name,
		Closes:  make(map[string]string),
		Started: cj.now().UTC(),
	}

	cj.l.Info("executing cronjob",
		applogger.String("job", name),
		applogger.String("run_id", sum.RunID),
		applogger.Strings("tickers", cj.tickers),
	)

	if job.ProviderInterval == "" {
		cj.notify.Go(notifier.ChannelTelegram, fmt.Sprintf("executing cronjob: %s", name))
		cj.metrics.RecordCronRun(name, "ok")
		return sum, nil
	}

	if job.SettingKey != "" {
		if err := cj.settings.Set(ctx, job.SettingKey, xutil.FormatTimestamp(sum.Started)); err != nil {
			cj.l.Error("cronjob: write last run failed",
				applogger.String("job", name),
				applogger.String("run_id", sum.RunID),
				applogger.Error(err),
			)
		}
	}

	for _, ticker := range cj.tickers {
		if err := ctx.Err(); err != nil {
			sum.Failed = append(sum.Failed, ticker)
			continue
		}
		res, err := cj.refresh.Refresh(ctx, ticker, job.ProviderInterval)
		if err != nil {
			sum.Failed = append(sum.Failed, ticker)
			cj.l.Error("cronjob: refresh failed",
				applogger.String("job", name),
				applogger.String("run_id", sum.RunID),
				applogger.String("ticker", ticker),
				applogger.Error(err),
			)
			continue
		}
		if len(res.Stored) > 0 {
			sum.Closes[ticker] = res.Stored[0].Close
		}
	}

	result := "ok"
	if len(sum.Failed) > 0 {
		result = "partial"
		if len(sum.Failed) == len(cj.tickers) {
			result = "error"
		}
	}
	cj.metrics.RecordCronRun(name, result)

	cj.l.Info("executed cronjob",
		applogger.String("job", name),
		applogger.String("run_id", sum.RunID),
		applogger.Int("failed", len(sum.Failed)),
		applogger.Duration("duration", cj.now().Sub(sum.Started)),
	)

	cj.notify.Go(notifier.ChannelTelegram, cj.message(sum))

	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

func (cj *CronJobs) message(sum *RunSummary) string {
	failed := make(map[string]struct{}, len(sum.Failed))
	for _, t := range sum.Failed {
		failed[t] = struct{}{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "executed cronjob: %s", sum.Job)
	for _, t := range cj.tickers {
		price, stored := sum.Closes[t]
		_, broken := failed[t]
		switch {
		case stored:
			fmt.Fprintf(&b, "\n%s %s", t, price)
		case broken:
			fmt.Fprintf(&b, "\n%s failed", t)
		default:
			fmt.Fprintf(&b, "\n%s no data", t)
		}
	}
	return b.String()
}
