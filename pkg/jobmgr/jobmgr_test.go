package jobmgr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartAsyncRejectsDuplicates(t *testing.T) {
	m := NewManager(nil)
	release := make(chan struct{})

	require.NoError(t, m.StartAsync("job", func(ctx context.Context) error {
		<-release
		return nil
	}))
	require.Error(t, m.StartAsync("job", func(ctx context.Context) error { return nil }))

	assert.Equal(t, []string{"job"}, m.List())
	close(release)
}

func TestStopCancelsJob(t *testing.T) {
	m := NewManager(nil)
	done := make(chan struct{})

	require.NoError(t, m.StartAsync("job", func(ctx context.Context) error {
		<-ctx.Done()
		close(done)
		return nil
	}))
	require.NoError(t, m.Stop("job"))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not observe cancellation")
	}
	require.Error(t, m.Stop("job"))
}

func TestReporterSeesLifecycle(t *testing.T) {
	events := make(chan string, 4)
	m := NewManager(func(msg string) { events <- msg })

	require.NoError(t, m.StartAsync("job", func(ctx context.Context) error { return nil }))

	assert.Equal(t, "running:job", <-events)
	assert.Equal(t, "done:job", <-events)
}
