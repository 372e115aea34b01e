package cron_feature

import (
	"context"
	"errors"
	gosync "sync"
	"testing"

	"go-portal-sync/internal/common/errs"
	"go-portal-sync/internal/config"
	sync_feature "go-portal-sync/internal/features/sync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubRunner struct {
	runs []string
	err  error
}

func (s *stubRunner) RunTask(_ context.Context, name string) (*sync_feature.RunReport, error) {
	s.runs = append(s.runs, name)
	return &sync_feature.RunReport{Task: name, Fetched: 3}, s.err
}

func (s *stubRunner) Run(ctx context.Context, p sync_feature.PipelineConfig) (*sync_feature.RunReport, error) {
	return s.RunTask(ctx, p.Name)
}

func (s *stubRunner) Tasks() []sync_feature.PipelineConfig {
	return []sync_feature.PipelineConfig{{Name: "members"}, {Name: "organizations"}}
}

func newTestService(t *testing.T, schedules map[string]string, runner *stubRunner) *CronServiceImpl {
	t.Helper()
	svc := NewCronService(&config.Config{SyncSchedules: schedules}, runner, zaptest.NewLogger(t)).(*CronServiceImpl)
	t.Cleanup(func() { _ = svc.StopScheduler() })
	return svc
}

func TestInitializeSchedulerRegistersConfiguredTasks(t *testing.T) {
	svc := newTestService(t, map[string]string{"members": "*/15 * * * *"}, &stubRunner{})

	require.NoError(t, svc.InitializeScheduler(context.Background()))

	jobs := svc.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "members", jobs[0].Task)
	assert.True(t, jobs[0].Scheduled)
	assert.Equal(t, "*/15 * * * *", jobs[0].Schedule)
	assert.NotNil(t, jobs[0].NextRun)
	assert.False(t, jobs[1].Scheduled)
	assert.Nil(t, jobs[1].NextRun)
}

func TestInitializeSchedulerRejectsUnknownTask(t *testing.T) {
	svc := newTestService(t, map[string]string{"invoices": "@hourly"}, &stubRunner{})

	err := svc.InitializeScheduler(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindConfiguration))
}

func TestInitializeSchedulerRejectsInvalidSpec(t *testing.T) {
	svc := newTestService(t, map[string]string{"members": "every tuesday"}, &stubRunner{})

	err := svc.InitializeScheduler(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindConfiguration))
}

func TestUnregisterJob(t *testing.T) {
	svc := newTestService(t, map[string]string{"members": "@hourly"}, &stubRunner{})
	require.NoError(t, svc.InitializeScheduler(context.Background()))

	require.NoError(t, svc.UnregisterJob("members"))
	assert.False(t, svc.ListJobs()[0].Scheduled)
}

func TestRunTaskRecordsLastRun(t *testing.T) {
	runner := &stubRunner{}
	svc := newTestService(t, nil, runner)

	svc.runTask("members")
	runner.err = errs.E(errs.KindTransport, "push", errors.New("503"))
	svc.runTask("organizations")

	assert.Equal(t, []string{"members", "organizations"}, runner.runs)

	jobs := svc.ListJobs()
	require.NotNil(t, jobs[0].LastRun)
	assert.Equal(t, "success", jobs[0].LastRun.Status)
	assert.Equal(t, 3, jobs[0].LastRun.Fetched)

	require.NotNil(t, jobs[1].LastRun)
	assert.Equal(t, "failed", jobs[1].LastRun.Status)
	assert.Contains(t, jobs[1].LastRun.Error, "503")
}

func TestStopSchedulerBeforeInitialize(t *testing.T) {
	svc := newTestService(t, nil, &stubRunner{})
	assert.NoError(t, svc.StopScheduler())
}

func TestStopSchedulerConcurrentWithListJobs(t *testing.T) {
	svc := newTestService(t, map[string]string{"members": "@hourly"}, &stubRunner{})
	require.NoError(t, svc.InitializeScheduler(context.Background()))

	var wg gosync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = svc.StopScheduler()
		}()
		go func() {
			defer wg.Done()
			_ = svc.ListJobs()
		}()
	}
	wg.Wait()
}
