package testutil

import (
	"errors"
	"sync"
)

// ErrWriteFailed is returned by FailingWriter.
var ErrWriteFailed = errors.New("testutil: write failed")

// FailingWriter fails every write after the first OK writes.
type FailingWriter struct {
	OK int

	mu     sync.Mutex
	writes int
}

// Write implements io.Writer.
func (w *FailingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes++
	if w.writes > w.OK {
		return 0, ErrWriteFailed
	}
	return len(p), nil
}

// BlockingWriter parks the first Write until Release is called. Entered is
// closed once that first Write is in progress, which lets a test observe a
// pipeline in the middle of a run.
type BlockingWriter struct {
	Entered chan struct{}

	release chan struct{}
	once    sync.Once
	relOnce sync.Once
	buf     SafeBuffer
}

// NewBlockingWriter creates a BlockingWriter.
func NewBlockingWriter() *BlockingWriter {
	return &BlockingWriter{
		Entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

// Write implements io.Writer.
func (w *BlockingWriter) Write(p []byte) (int, error) {
	w.once.Do(func() {
		close(w.Entered)
		<-w.release
	})
	return w.buf.Write(p)
}

// Release unblocks the parked Write. It is safe to call more than once.
func (w *BlockingWriter) Release() {
	w.relOnce.Do(func() { close(w.release) })
}

// Lines returns everything written so far, split into lines.
func (w *BlockingWriter) Lines() []string {
	return w.buf.Lines()
}
