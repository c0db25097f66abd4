package actorutil

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackgroundTaskDeliversValue(t *testing.T) {
	var got string
	NewBackgroundTask(nil, func() (*string, error) {
		s := "done"
		return &s, nil
	}).OnSuccess(func(v string) { got = v }).Run()

	assert.Equal(t, "done", got)
}

func TestBackgroundTaskDeliversRecoveredValue(t *testing.T) {
	var got string
	NewBackgroundTask(nil, func() (*string, error) {
		return nil, errors.New("boom")
	}).Recover(func(err error) string {
		return "recovered: " + err.Error()
	}).OnSuccess(func(v string) { got = v }).Run()

	assert.Equal(t, "recovered: boom", got)
}

func TestBackgroundTaskErrorWithoutRecoverDropsResult(t *testing.T) {
	called := false
	NewBackgroundTask(nil, func() (*string, error) {
		return nil, errors.New("boom")
	}).OnSuccess(func(string) { called = true }).Run()

	assert.False(t, called)
}

func TestBackgroundTaskTimeoutHitsRecover(t *testing.T) {
	var got string
	NewBackgroundTask(nil, func() (*string, error) {
		time.Sleep(300 * time.Millisecond)
		s := "late"
		return &s, nil
	}).WithTimeout(50 * time.Millisecond).Recover(func(error) string {
		return "timed out"
	}).OnSuccess(func(v string) { got = v }).Run()

	assert.Equal(t, "timed out", got)
}
