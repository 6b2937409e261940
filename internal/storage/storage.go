// Package storage persists run outputs as CSV files in a data directory.
//
// Every file starts with a single "#" comment line describing the run,
// followed by a header row. Writes are atomic: rows go to a temporary file
// that is renamed over the target only once it is complete, so a crash never
// leaves a truncated table behind.
package storage

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File names inside the data directory.
const (
	LocalFactorsFile = "local_factors.csv"
	ConvergenceFile  = "convergence.csv"
	PrimeCountsFile  = "prime_counts.csv"
)

// Default permissions for created files and directories.
const (
	DefaultFilePermissions os.FileMode = 0o644
	DefaultDirPermissions  os.FileMode = 0o755
)

// Store reads and writes CSV tables under one directory.
type Store struct {
	dir             string
	filePermissions os.FileMode
	dirPermissions  os.FileMode
}

// New creates a Store rooted at dir. Zero permissions select the defaults.
func New(dir string, filePermissions, dirPermissions os.FileMode) *Store {
	if dir == "" {
		dir = "data"
	}
	if filePermissions == 0 {
		filePermissions = DefaultFilePermissions
	}
	if dirPermissions == 0 {
		dirPermissions = DefaultDirPermissions
	}
	return &Store{
		dir:             dir,
		filePermissions: filePermissions,
		dirPermissions:  dirPermissions,
	}
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the full path of a file in the data directory.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// save writes one table atomically. rows is called with a writer positioned
// after the header.
func (s *Store) save(name, comment string, header []string, rows func(w *csv.Writer) error) (err error) {
	if err := os.MkdirAll(s.dir, s.dirPermissions); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	path := s.Path(name)
	tempPath := path + ".tmp"
	f, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, s.filePermissions)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tempPath) // Clean up temp file on failure
		}
	}()

	buf := bufio.NewWriter(f)
	if comment != "" {
		line := "# " + strings.ReplaceAll(comment, "\n", " ") + "\n"
		if _, err = buf.WriteString(line); err != nil {
			return fmt.Errorf("failed to write comment: %w", err)
		}
	}

	w := csv.NewWriter(buf)
	if err = w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err = rows(w); err != nil {
		return err
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err = buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush file: %w", err)
	}
	if err = f.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	// Rename temp file to actual file
	if err = os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// load reads a table, checks its header and calls row for every record.
func (s *Store) load(name string, header []string, row func(line int, rec []string) error) error {
	path := s.Path(name)

	// Clean up any stale temp files from previous crashes
	tempPath := path + ".tmp"
	if _, err := os.Stat(tempPath); err == nil {
		_ = os.Remove(tempPath)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.Comment = '#'
	r.FieldsPerRecord = len(header)
	r.ReuseRecord = true

	got, err := r.Read()
	if err != nil {
		return fmt.Errorf("failed to read %s header: %w", name, err)
	}
	for i := range header {
		if strings.TrimSpace(got[i]) != header[i] {
			return fmt.Errorf("unexpected %s header %q, want %q", name, strings.Join(got, ","), strings.Join(header, ","))
		}
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		line, _ := r.FieldPos(0)
		if err := row(line, rec); err != nil {
			return fmt.Errorf("%s line %d: %w", name, line, err)
		}
	}
}
