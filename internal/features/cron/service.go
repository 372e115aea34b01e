package cron_feature

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go-portal-sync/internal/common/errs"
	"go-portal-sync/internal/config"
	sync_feature "go-portal-sync/internal/features/sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type CronService interface {
	InitializeScheduler(ctx context.Context) error
	StopScheduler() error
	RegisterJob(task, schedule string) error
	UnregisterJob(task string) error
	ListJobs() []ScheduledTask
}

type CronServiceImpl struct {
	syncService sync_feature.SyncService
	schedules   map[string]string
	logger      *zap.Logger
	runTimeout  time.Duration

	scheduler  *cron.Cron
	jobEntries map[string]cron.EntryID
	specs      map[string]string
	lastRuns   map[string]*RunState
	mu         sync.RWMutex
}

func NewCronService(cfg *config.Config, syncService sync_feature.SyncService, logger *zap.Logger) CronService {
	return &CronServiceImpl{
		syncService: syncService,
		schedules:   cfg.SyncSchedules,
		logger:      logger.Named("scheduler"),
		runTimeout:  time.Hour,
		jobEntries:  make(map[string]cron.EntryID),
		specs:       make(map[string]string),
		lastRuns:    make(map[string]*RunState),
	}
}

// InitializeScheduler registers every configured schedule and starts the
// scheduler. An invalid schedule or unknown task fails startup.
func (s *CronServiceImpl) InitializeScheduler(ctx context.Context) error {
	s.logger.Info("Initializing cron scheduler", zap.Int("schedules", len(s.schedules)))

	cronLog := cronLogger{s.logger.Sugar()}
	s.mu.Lock()
	s.scheduler = cron.New(cron.WithChain(
		cron.Recover(cronLog),
		cron.SkipIfStillRunning(cronLog),
	))
	s.mu.Unlock()

	tasks := make([]string, 0, len(s.schedules))
	for task := range s.schedules {
		tasks = append(tasks, task)
	}
	sort.Strings(tasks)

	for _, task := range tasks {
		if err := s.RegisterJob(task, s.schedules[task]); err != nil {
			return err
		}
	}

	s.mu.RLock()
	s.scheduler.Start()
	s.mu.RUnlock()
	return nil
}

// StopScheduler waits for running jobs. The lock is released before waiting
// because finishing jobs record their outcome under it.
func (s *CronServiceImpl) StopScheduler() error {
	s.mu.RLock()
	scheduler := s.scheduler
	s.mu.RUnlock()

	if scheduler != nil {
		ctx := scheduler.Stop()
		<-ctx.Done()
	}
	return nil
}

func (s *CronServiceImpl) RegisterJob(task, schedule string) error {
	const op = "scheduler.register"

	if !s.knownTask(task) {
		return errs.Errorf(errs.KindConfiguration, op, "unknown task %q", task)
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return errs.E(errs.KindConfiguration, op, fmt.Errorf("invalid cron expression for %q: %w", task, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		return errs.Errorf(errs.KindInternal, op, "scheduler not initialized")
	}
	if entryID, exists := s.jobEntries[task]; exists {
		s.scheduler.Remove(entryID)
	}

	entryID, err := s.scheduler.AddFunc(schedule, func() { s.runTask(task) })
	if err != nil {
		return errs.E(errs.KindConfiguration, op, fmt.Errorf("failed to add cron job to scheduler: %w", err))
	}

	s.jobEntries[task] = entryID
	s.specs[task] = schedule
	s.logger.Info("Scheduled sync task", zap.String("task", task), zap.String("schedule", schedule))
	return nil
}

func (s *CronServiceImpl) UnregisterJob(task string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, exists := s.jobEntries[task]; exists {
		s.scheduler.Remove(entryID)
		delete(s.jobEntries, task)
		delete(s.specs, task)
	}
	return nil
}

// ListJobs returns every known task with its schedule and last run.
func (s *CronServiceImpl) ListJobs() []ScheduledTask {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ScheduledTask
	for _, p := range s.syncService.Tasks() {
		job := ScheduledTask{Task: p.Name}
		if entryID, ok := s.jobEntries[p.Name]; ok {
			job.Scheduled = true
			job.Schedule = s.specs[p.Name]
			if next := s.scheduler.Entry(entryID).Next; !next.IsZero() {
				job.NextRun = &next
			}
		}
		if last, ok := s.lastRuns[p.Name]; ok {
			state := *last
			job.LastRun = &state
		}
		out = append(out, job)
	}
	return out
}

func (s *CronServiceImpl) runTask(task string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	state := &RunState{StartedAt: time.Now().UTC(), Status: "running"}
	s.setLastRun(task, state)

	report, err := s.syncService.RunTask(ctx, task)

	done := *state
	done.Duration = time.Since(state.StartedAt)
	if report != nil {
		done.Fetched = report.Fetched
	}
	if err != nil {
		done.Status = "failed"
		done.Error = err.Error()
		s.logger.Warn("Scheduled sync failed", zap.String("task", task), zap.Error(err))
	} else {
		done.Status = "success"
	}
	s.setLastRun(task, &done)
}

func (s *CronServiceImpl) setLastRun(task string, state *RunState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRuns[task] = state
}

func (s *CronServiceImpl) knownTask(task string) bool {
	for _, p := range s.syncService.Tasks() {
		if p.Name == task {
			return true
		}
	}
	return false
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Warnw(msg, append(keysAndValues, "error", err)...)
}
