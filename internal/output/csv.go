// Package output serializes extracted repositories to CSV.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/byteowlz/trendr/internal/extractor"
	"github.com/byteowlz/trendr/internal/logger"
)

// TimestampLayout is appended to the filename prefix, e.g. 20250102_150405.
const TimestampLayout = "20060102_150405"

// DefaultPrefix is the filename prefix used when none is configured.
const DefaultPrefix = "trending_repositories"

// Header is the CSV header row.
var Header = []string{"repository_name", "link"}

// WriteError reports a failure to create or write the output.
type WriteError struct {
	Path string // "" when writing to a caller-supplied writer
	Err  error
}

func (e *WriteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("write csv: %v", e.Err)
	}
	return fmt.Sprintf("write csv %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

type CSVWriter struct {
	Dir    string
	Prefix string
	Now    func() time.Time
}

func NewCSVWriter(dir, prefix string) *CSVWriter {
	return &CSVWriter{
		Dir:    dir,
		Prefix: prefix,
		Now:    time.Now,
	}
}

// Filename returns the timestamped file name for a capture taken at now.
func (w *CSVWriter) Filename(now time.Time) string {
	prefix := w.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s_%s.csv", prefix, now.Format(TimestampLayout))
}

// Write creates a new timestamped file in Dir and returns its path.
func (w *CSVWriter) Write(records []extractor.Record) (string, error) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}

	dir := w.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &WriteError{Path: dir, Err: fmt.Errorf("failed to create output directory: %w", err)}
	}

	path := filepath.Join(dir, w.Filename(now()))

	f, err := os.Create(path)
	if err != nil {
		return "", &WriteError{Path: path, Err: err}
	}

	if err := writeRows(f, records); err != nil {
		f.Close()
		return "", &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &WriteError{Path: path, Err: err}
	}

	logger.Info("saved repositories", "count", len(records), "path", path)
	return path, nil
}

// WriteTo writes the header and one row per record to out.
func WriteTo(out io.Writer, records []extractor.Record) error {
	if err := writeRows(out, records); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

func writeRows(out io.Writer, records []extractor.Record) error {
	cw := csv.NewWriter(out)

	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Name, r.Link}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
