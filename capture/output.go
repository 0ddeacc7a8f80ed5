package capture

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/acarl005/stripansi"

	"github.com/testforge/subreport/report"
)

// Captured is the output snapshot of one scope: the text collected from each
// stream while the collector was active. Empty strings mean nothing was
// captured (including the collector having been a no-op).
type Captured struct {
	Out string
	Err string
}

// UpdateReport attaches the non-empty streams as captured sections. ANSI
// escapes are stripped so stored reports stay readable outside a terminal.
func (c Captured) UpdateReport(r *report.TestReport) {
	if c.Out != "" {
		r.AddSection("Captured stdout call", stripansi.Strip(c.Out))
	}
	if c.Err != "" {
		r.AddSection("Captured stderr call", stripansi.Strip(c.Err))
	}
}

// OutputHandle is a scoped acquisition of the process output streams.
// StartOutput begins the redirection; End releases it exactly once and
// returns the collected text. End always restores the original streams,
// including when the scope body panicked.
type OutputHandle struct {
	active   bool
	mgr      *Manager
	released bool

	origOut, origErr *os.File
	wOut, wErr       *os.File
	rOut, rErr       *os.File
	outBuf, errBuf   *tailBuffer

	wg   sync.WaitGroup
	once sync.Once

	captured Captured
	err      error
}

// StartOutput begins collecting os.Stdout/os.Stderr for one scope. The
// collector is a no-op when process-wide capture is disabled or a user-held
// capture fixture is already active for the enclosing test; competing with a
// fixture would double-capture or steal its output.
func (m *Manager) StartOutput() (*OutputHandle, error) {
	if m.Mode() != ModeSys || m.FixtureActive() {
		return &OutputHandle{active: false}, nil
	}

	h := &OutputHandle{
		active: true,
		mgr:    m,
		outBuf: newTailBuffer(0),
		errBuf: newTailBuffer(0),
	}

	var err error
	h.rOut, h.wOut, err = os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	h.rErr, h.wErr, err = os.Pipe()
	if err != nil {
		h.rOut.Close()
		h.wOut.Close()
		return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	h.origOut, h.origErr = os.Stdout, os.Stderr
	os.Stdout, os.Stderr = h.wOut, h.wErr

	h.wg.Add(2)
	go h.drain(h.rOut, h.outBuf)
	go h.drain(h.rErr, h.errBuf)

	m.push(h)
	return h, nil
}

func (h *OutputHandle) drain(r *os.File, buf *tailBuffer) {
	defer h.wg.Done()
	_, _ = io.Copy(buf, r)
}

// End releases the redirection and returns the captured text. Safe to call
// more than once; later calls return the first result.
func (h *OutputHandle) End() (Captured, error) {
	h.once.Do(func() {
		if !h.active {
			return
		}
		h.mgr.pop(h)

		h.mgr.mu.Lock()
		os.Stdout, os.Stderr = h.origOut, h.origErr
		h.released = true
		h.mgr.mu.Unlock()

		// Closing the write ends unblocks the drain goroutines.
		errOut := h.wOut.Close()
		errErr := h.wErr.Close()
		h.wg.Wait()
		h.rOut.Close()
		h.rErr.Close()

		h.captured = Captured{Out: h.outBuf.String(), Err: h.errBuf.String()}
		if errOut != nil {
			h.err = fmt.Errorf("failed to release stdout capture: %w", errOut)
		} else if errErr != nil {
			h.err = fmt.Errorf("failed to release stderr capture: %w", errErr)
		}
	})
	return h.captured, h.err
}
