package recorder

import (
	"fmt"
	"os"
	"sync"
)

// FileSink appends capture process output lines to a log file. It implements
// OutputHandler and is safe for the two concurrent stream readers.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileSink opens (or creates) the log file for appending.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &FileSink{file: f}, nil
}

// HandleLine writes one output line to the log file. Write errors are
// swallowed; losing a log line must not disturb the capture process.
func (s *FileSink) HandleLine(_, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.file.WriteString(line + "\n")
}

// WriteBanner appends a marker line, used for session start/end entries.
func (s *FileSink) WriteBanner(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.file, "--- "+format+" ---\n", args...)
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
