package cronjob

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct{ calls atomic.Int32 }

func (s *countingSweeper) Sweep() int {
	s.calls.Add(1)
	return 1
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	_, err := NewScheduler("every now and then", &countingSweeper{})
	assert.Error(t, err)
}

func TestScheduler_RunsSweep(t *testing.T) {
	sw := &countingSweeper{}
	s, err := NewScheduler("@every 1s", sw)
	require.NoError(t, err)

	s.Start()
	defer s.Stop(context.Background())

	require.Eventually(t, func() bool { return sw.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
