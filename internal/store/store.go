package store

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/zenops/shieldscan/pkg/logger"
	"github.com/zenops/shieldscan/pkg/types"
)

// csvHeader is the fixed header row of the series file. It is written once
// on first run and skipped on every load.
var csvHeader = []string{"BLOCK HEIGHT", "SHIELDED POOL VALUE"}

// CorruptError indicates a persisted row that does not parse as a
// (height, value) pair. The store is left untouched so the file can be
// inspected by hand.
type CorruptError struct {
	Line int
	Row  string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt series row at line %d (%q): %v", e.Line, e.Row, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// Store is the durable, append-only home of the series. Rows are plain CSV
// in ascending height order; the file is only ever appended to, never
// rewritten.
type Store struct {
	path   string
	logger *logger.Logger
}

// New creates a store backed by the CSV file at path. The file itself is
// created lazily on the first Load or Append.
func New(path string, logger *logger.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads every persisted entry in height order. A missing file is the
// expected first-run state: the file is created with its header and an
// empty series is returned.
func (s *Store) Load() (types.Series, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		if err := s.initialize(); err != nil {
			return nil, err
		}
		return types.Series{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open series file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	// Skip the header row. An empty file means the header was lost, which
	// reads the same as a freshly initialized store.
	if _, err := reader.Read(); err == io.EOF {
		return types.Series{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read series header: %w", err)
	}

	series := types.Series{}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &CorruptError{Line: line, Err: err}
		}
		entry, err := parseRow(row)
		if err != nil {
			return nil, &CorruptError{Line: line, Row: joinRow(row), Err: err}
		}
		series = append(series, entry)
	}

	return series, nil
}

// LastHeight returns the height of the last persisted entry. ok is false
// when the store holds no entries yet.
func (s *Store) LastHeight() (height int64, ok bool, err error) {
	series, err := s.Load()
	if err != nil {
		return 0, false, err
	}
	height, ok = series.LastHeight()
	return height, ok, nil
}

// Append durably adds entries to the end of the series in the order given.
// Already-persisted rows are never read back or rewritten. The whole batch
// goes through one buffered flush and fsync, so a crash mid-write leaves at
// worst an in-order prefix of the batch on disk.
//
// The caller is responsible for the contiguity precondition: the first new
// height must be exactly one past the last persisted height.
func (s *Store) Append(entries types.Series) error {
	if len(entries) == 0 {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		if err := s.initialize(); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open series file for append: %w", err)
	}
	defer f.Close()

	buf := bufio.NewWriter(f)
	w := csv.NewWriter(buf)
	for _, e := range entries {
		row := []string{
			strconv.FormatInt(e.Height, 10),
			strconv.FormatFloat(e.Value, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write series row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to encode series rows: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush series rows: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync series file: %w", err)
	}

	s.logger.Debug("appended series entries",
		zap.Int("count", len(entries)),
		zap.Int64("first_height", entries[0].Height),
		zap.Int64("last_height", entries[len(entries)-1].Height))

	return nil
}

// initialize creates the backing file with its header row.
func (s *Store) initialize() error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create series file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write series header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write series header: %w", err)
	}

	s.logger.Info("initialized series file", zap.String("path", s.path))
	return nil
}

func parseRow(row []string) (types.Entry, error) {
	if len(row) != 2 {
		return types.Entry{}, fmt.Errorf("expected 2 fields, got %d", len(row))
	}
	height, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return types.Entry{}, fmt.Errorf("invalid height %q: %w", row[0], err)
	}
	if height < 0 {
		return types.Entry{}, fmt.Errorf("negative height %d", height)
	}
	value, err := strconv.ParseFloat(row[1], 64)
	if err != nil {
		return types.Entry{}, fmt.Errorf("invalid value %q: %w", row[1], err)
	}
	return types.Entry{Height: height, Value: value}, nil
}

func joinRow(row []string) string {
	return strings.Join(row, ",")
}
