package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wonny/macrowatch/pkg/config"
	"github.com/wonny/macrowatch/pkg/logger"
)

func testScheduler() *Scheduler {
	s := New(logger.New(&config.Config{LogLevel: "error", LogFormat: "console"}))
	s.retryDelay = time.Millisecond
	return s
}

func waitForHistory(t *testing.T, s *Scheduler, name string) JobResult {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		history, err := s.History(name)
		if err == nil {
			s.mu.RLock()
			var result JobResult
			found := len(history.Results) > 0
			if found {
				result = history.Results[0]
			}
			s.mu.RUnlock()
			if found {
				return result
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never recorded a result")
	return JobResult{}
}

func TestAddJobDuplicate(t *testing.T) {
	s := testScheduler()
	job := FuncJob{JobName: "run", Cron: "@daily", Fn: func(context.Context) error { return nil }}

	if err := s.AddJob(job); err != nil {
		t.Fatalf("first AddJob: %v", err)
	}
	if err := s.AddJob(job); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestAddJobBadSchedule(t *testing.T) {
	s := testScheduler()
	job := FuncJob{JobName: "bad", Cron: "not a cron expr", Fn: func(context.Context) error { return nil }}
	if err := s.AddJob(job); err == nil {
		t.Error("expected invalid cron expression to fail")
	}
}

func TestRunNowRecordsSuccess(t *testing.T) {
	s := testScheduler()
	var calls int32
	job := FuncJob{JobName: "run", Cron: "@daily", Fn: func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}}

	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := s.RunNow("run"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}

	result := waitForHistory(t, s, "run")
	if !result.Success {
		t.Errorf("expected success, got error %q", result.Error)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 call, got %d", got)
	}
}

func TestRunNowRetriesOnFailure(t *testing.T) {
	s := testScheduler()
	var calls int32
	job := FuncJob{JobName: "flaky", Cron: "@daily", Fn: func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("boom")
	}}

	if err := s.AddJob(job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := s.RunNow("flaky"); err != nil {
		t.Fatalf("RunNow: %v", err)
	}

	result := waitForHistory(t, s, "flaky")
	if result.Success {
		t.Error("expected failure result")
	}
	// initial attempt + 2 retries
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestRunNowUnknownJob(t *testing.T) {
	s := testScheduler()
	if err := s.RunNow("missing"); err == nil {
		t.Error("expected unknown job to fail")
	}
}
