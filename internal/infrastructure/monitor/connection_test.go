package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	fail  atomic.Bool
	pings atomic.Int32
}

func (s *stubChecker) Ping(context.Context) error {
	s.pings.Add(1)
	if s.fail.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestMonitorStartsOffline(t *testing.T) {
	m := New(&stubChecker{}, time.Minute, nil)
	assert.False(t, m.IsOnline())
	assert.True(t, m.GetStatus().LastCheck.IsZero())
}

func TestCheckRecordsReachability(t *testing.T) {
	checker := &stubChecker{}
	m := New(checker, time.Minute, nil)

	status := m.Check(context.Background())
	assert.True(t, status.Online)
	assert.True(t, m.IsOnline())

	checker.fail.Store(true)
	status = m.Check(context.Background())
	assert.False(t, status.Online)
	assert.Equal(t, "connection refused", m.GetStatus().LastError)
}

func TestLoopChecksImmediately(t *testing.T) {
	checker := &stubChecker{}
	m := New(checker, time.Hour, nil)
	m.Start()

	require.Eventually(t, m.IsOnline, time.Second, 10*time.Millisecond)
	m.Stop()
	m.Stop()
	assert.Equal(t, int32(1), checker.pings.Load())
}
