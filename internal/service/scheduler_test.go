package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	db := setupTestDB(t)
	scheduler := NewScheduler(db, 30, 1, testLogger())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		scheduler.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after context cancellation")
	}
}

func TestSchedulerStopsOnStopSignal(t *testing.T) {
	db := setupTestDB(t)
	scheduler := NewScheduler(db, 30, 1, testLogger())

	done := make(chan struct{})
	go func() {
		scheduler.Start(context.Background())
		close(done)
	}()

	scheduler.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after Stop")
	}
}

func TestSchedulerDefaultInterval(t *testing.T) {
	db := setupTestDB(t)
	scheduler := NewScheduler(db, 30, 0, testLogger())
	assert.Greater(t, scheduler.intervalHours, 0)
}
