package capture

import (
	"os"
	"sync"
)

// Mode selects the process-wide capture behavior, mirroring the host's
// capture option: ModeSys intercepts os.Stdout/os.Stderr, ModeNone disables
// capture entirely (the "-s" equivalent).
type Mode string

const (
	ModeSys  Mode = "sys"
	ModeNone Mode = "none"
)

// PluginName is the name the manager is registered under in the host
// session's plugin table.
const PluginName = "capturemanager"

// Manager owns the process-wide capture state: the configured mode, whether
// a user-held capture fixture is currently active (in which case scoped
// collectors must not compete with it), and the stack of active collectors
// so capture can be suspended while a report line is written to the real
// terminal.
type Manager struct {
	mu            sync.Mutex
	mode          Mode
	fixtureActive bool
	active        []*OutputHandle
}

func NewManager(mode Mode) *Manager {
	if mode == "" {
		mode = ModeSys
	}
	return &Manager{mode: mode}
}

func (m *Manager) Mode() Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mode
}

// FixtureActive reports whether a user-facing capture fixture currently owns
// the streams for the enclosing test.
func (m *Manager) FixtureActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fixtureActive
}

func (m *Manager) setFixtureActive(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixtureActive = v
}

// Suspend lifts the innermost active stream redirection so output written
// until the returned resume func is called goes to the real terminal. With
// no active collector it is a no-op. Used while dispatching a subtest report
// so its line is visible even though the enclosing test is still capturing.
func (m *Manager) Suspend() (resume func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.active) == 0 {
		return func() {}
	}
	top := m.active[len(m.active)-1]
	os.Stdout = top.origOut
	os.Stderr = top.origErr
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if top.released {
			return
		}
		os.Stdout = top.wOut
		os.Stderr = top.wErr
	}
}

func (m *Manager) push(h *OutputHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = append(m.active, h)
}

func (m *Manager) pop(h *OutputHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.active) - 1; i >= 0; i-- {
		if m.active[i] == h {
			m.active = append(m.active[:i], m.active[i+1:]...)
			return
		}
	}
}
