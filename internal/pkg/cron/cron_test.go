package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndList(t *testing.T) {
	s := New()
	s.Register(Job{
		Name:        "purge",
		Description: "delete stale rows",
		Interval:    time.Hour,
		Fn:          func(ctx context.Context) error { return nil },
	})

	items := s.List()
	require.Len(t, items, 1)
	assert.Equal(t, "purge", items[0].Name)
	assert.Equal(t, "delete stale rows", items[0].Description)
	assert.Equal(t, StatusIdle, items[0].Status)
	assert.Nil(t, items[0].LastRunAt)
}

func TestStatusUnknownJob(t *testing.T) {
	s := New()
	_, err := s.Status("nope")
	assert.Error(t, err)
}

func TestRunUnknownJob(t *testing.T) {
	s := New()
	assert.Error(t, s.Run(context.Background(), "nope"))
}

func TestExecuteRecordsOutcome(t *testing.T) {
	s := New()
	s.Register(Job{
		Name:     "ok",
		Interval: time.Hour,
		Fn:       func(ctx context.Context) error { return nil },
	})
	s.Register(Job{
		Name:     "bad",
		Interval: time.Hour,
		Fn:       func(ctx context.Context) error { return errors.New("boom") },
	})

	s.execute(context.Background(), s.jobs["ok"])
	result, err := s.Status("ok")
	require.NoError(t, err)
	assert.Equal(t, StatusFulfill, result.Status)
	assert.Empty(t, result.Message)

	s.execute(context.Background(), s.jobs["bad"])
	result, err = s.Status("bad")
	require.NoError(t, err)
	assert.Equal(t, StatusReject, result.Status)
	assert.Equal(t, "boom", result.Message)

	items := s.List()
	for _, item := range items {
		assert.NotNil(t, item.LastRunAt)
	}
}

func TestExecuteSkipsWhileRunning(t *testing.T) {
	s := New()
	ran := 0
	s.Register(Job{
		Name:     "slow",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			ran++
			return nil
		},
	})

	js := s.jobs["slow"]
	js.mu.Lock()
	js.status = StatusRunning
	js.mu.Unlock()

	s.execute(context.Background(), js)
	assert.Zero(t, ran)
}
