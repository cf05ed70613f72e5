package lifecycle_test

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/tagline/pkg/lifecycle"
)

func TestStartupRunsAllHooks(t *testing.T) {
	lc := lifecycle.New()
	var count atomic.Int32

	for range 3 {
		lc.OnStartup("hook", func() error {
			count.Add(1)
			return nil
		})
	}

	assert.False(t, lc.Ready())
	require.NoError(t, lc.WaitForStartup())
	assert.True(t, lc.Ready())
	assert.Equal(t, int32(3), count.Load())
}

func TestStartupFailureBlocksReadiness(t *testing.T) {
	lc := lifecycle.New()
	boom := errors.New("boom")

	lc.OnStartup("ok", func() error { return nil })
	lc.OnStartup("database", func() error { return boom })

	err := lc.WaitForStartup()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "database")
	assert.False(t, lc.Ready())
}

func TestShutdownCancelsContext(t *testing.T) {
	lc := lifecycle.New()
	var closed atomic.Bool

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		closed.Store(true)
	})

	require.NoError(t, lc.WaitForStartup())
	require.NoError(t, lc.Shutdown(time.Second))
	assert.True(t, closed.Load())
	assert.False(t, lc.Ready())
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()
	release := make(chan struct{})
	defer close(release)

	lc.OnShutdown(func() {
		<-release
	})

	err := lc.Shutdown(20 * time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown timeout")
}
