package capture

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuspendWithoutCollector(t *testing.T) {
	m := NewManager(ModeSys)
	resume := m.Suspend()
	resume() // must not panic or touch the streams
}

func TestSuspendRestoresRealStreams(t *testing.T) {
	origOut := os.Stdout

	m := NewManager(ModeSys)
	h, err := m.StartOutput()
	require.NoError(t, err)

	fmt.Fprint(os.Stdout, "captured")

	resume := m.Suspend()
	assert.Same(t, origOut, os.Stdout)
	resume()
	assert.NotSame(t, origOut, os.Stdout)

	fmt.Fprint(os.Stdout, " more")

	c, err := h.End()
	require.NoError(t, err)
	assert.Equal(t, "captured more", c.Out)
}

func TestResumeAfterEndDoesNotReinstallPipes(t *testing.T) {
	origOut := os.Stdout

	m := NewManager(ModeSys)
	h, err := m.StartOutput()
	require.NoError(t, err)

	resume := m.Suspend()
	_, err = h.End()
	require.NoError(t, err)

	resume()
	assert.Same(t, origOut, os.Stdout)
}

func TestManagerDefaultsToSys(t *testing.T) {
	assert.Equal(t, ModeSys, NewManager("").Mode())
	assert.Equal(t, ModeNone, NewManager(ModeNone).Mode())
}
