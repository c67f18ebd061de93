// Package fs implements file-system adapters.
package fs

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/nibp-labs/cuffstream/internal/domain"
)

// csvHeader is the first row of every log file.
const csvHeader = "Timestamp,CuffPressure,PulsePressure\n"

// CSVSink implements ports.SampleSink by appending CSV rows to a file.
// Rows carry an RFC 3339 timestamp and the two pressures in mmHg.
type CSVSink struct {
	path string

	mu    sync.Mutex
	file  *os.File
	w     *bufio.Writer
	bytes int64
}

// NewCSVSink creates a sink writing to the given path. The file is not
// touched until Start.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Path returns the log file path.
func (s *CSVSink) Path() string {
	return s.path
}

// Start opens the file for appending and writes the header when the file is
// new or empty.
func (s *CSVSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		return nil
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("csv sink: open %s: %w", s.path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("csv sink: stat %s: %w", s.path, err)
	}

	s.file = f
	s.w = bufio.NewWriter(f)
	s.bytes = 0

	if info.Size() == 0 {
		if _, err := s.w.WriteString(csvHeader); err != nil {
			s.closeLocked()
			return fmt.Errorf("csv sink: write header: %w", err)
		}
		s.bytes += int64(len(csvHeader))
	}
	return nil
}

// Append writes one timestamped sample row.
func (s *CSVSink) Append(t time.Time, sample domain.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return domain.ErrSinkUnavailable
	}

	row := t.Format(time.RFC3339Nano) + "," +
		strconv.FormatFloat(sample.CuffPressure, 'f', 2, 64) + "," +
		strconv.FormatFloat(sample.PulsePressure, 'f', 2, 64) + "\n"
	if _, err := s.w.WriteString(row); err != nil {
		return fmt.Errorf("csv sink: append: %w", err)
	}
	s.bytes += int64(len(row))
	return nil
}

// Bytes returns the running count of bytes written since Start.
func (s *CSVSink) Bytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

// Stop flushes and closes the file. Idempotent.
func (s *CSVSink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	return s.closeLocked()
}

func (s *CSVSink) closeLocked() error {
	var err error
	if s.w != nil {
		err = s.w.Flush()
		s.w = nil
	}
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.file = nil
	return err
}
