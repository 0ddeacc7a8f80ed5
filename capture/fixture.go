package capture

import (
	"fmt"
	"sync"
)

// Fixture is the user-facing capture handle a test holds to read its own
// output (the capsys equivalent). While a fixture is active, scoped subtest
// collectors must defer to it: StartOutput becomes a no-op so the two never
// fight over the streams.
type Fixture struct {
	mgr    *Manager
	handle *OutputHandle

	mu       sync.Mutex
	started  bool
	finished bool
}

// NewFixture acquires the streams for the enclosing test. Only one fixture
// can be active at a time.
func (m *Manager) NewFixture() (*Fixture, error) {
	if m.FixtureActive() {
		return nil, fmt.Errorf("a capture fixture is already active")
	}
	h, err := m.StartOutput()
	if err != nil {
		return nil, err
	}
	m.setFixtureActive(true)
	return &Fixture{mgr: m, handle: h, started: true}, nil
}

// ReadOutErr releases the streams and returns everything captured since the
// fixture was acquired.
func (f *Fixture) ReadOutErr() (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.handle.End()
	return c.Out, c.Err, err
}

// Close releases the streams (if still held) and clears the active flag.
func (f *Fixture) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finished {
		return nil
	}
	f.finished = true
	_, err := f.handle.End()
	f.mgr.setFixtureActive(false)
	return err
}
