package subreport

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testforge/subreport/capture"
	"github.com/testforge/subreport/harness"
	"github.com/testforge/subreport/registry"
)

func testConfig() *Config {
	return &Config{
		CaptureMode: capture.ModeNone,
		RunOnce:     true,
		Log:         log.Root(),
	}
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil, "v0", func(error) {})
	require.Error(t, err)
}

func TestRunOnceAllPassing(t *testing.T) {
	registry.Register("test_app_passing", func(t *harness.T) {})
	defer registry.Register("test_app_passing", func(t *harness.T) { t.Skipf("retired") })

	shutdown := make(chan error, 1)
	app, err := New(context.Background(), testConfig(), "v0", func(err error) { shutdown <- err })
	require.NoError(t, err)

	require.NoError(t, app.Start(context.Background()))

	select {
	case err := <-shutdown:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown callback never fired")
	}
}

func TestRunOnceWithFailure(t *testing.T) {
	registry.Register("test_app_failing", func(t *harness.T) { t.Fatalf("broken") })
	defer registry.Register("test_app_failing", func(t *harness.T) {})

	app, err := New(context.Background(), testConfig(), "v0", func(error) {})
	require.NoError(t, err)

	err = app.Start(context.Background())
	require.Error(t, err)
	assert.True(t, IsTestFailureError(err))
}

func TestStopIsIdempotent(t *testing.T) {
	app, err := New(context.Background(), testConfig(), "v0", func(error) {})
	require.NoError(t, err)

	assert.True(t, app.Stopped())
	require.NoError(t, app.Stop(context.Background()))
	require.NoError(t, app.Stop(context.Background()))
}
