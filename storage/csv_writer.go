package storage

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"imdb-rank/models"
)

// ExportHeader is the header row of the export file. The first cell is empty:
// it names the 0-based row index column.
var ExportHeader = []string{
	"", "tconst", "averageRating", "numVotes", "weightedRating", "primaryTitle", "startYear", "runtimeMinutes",
}

// CSVWriter writes the ranked export file.
type CSVWriter struct {
	path string
}

// NewCSVWriter returns a writer for path. Nothing touches the disk until
// Write is called.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Path returns the destination file.
func (c *CSVWriter) Path() string {
	return c.path
}

// Write replaces the export file with records. The data goes to a temporary
// file in the same directory that is renamed over the destination only after
// a successful flush and sync, so readers never see a partial export. An
// empty slice produces a header-only file.
func (c *CSVWriter) Write(records []*models.RankedExportRecord) (err error) {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("csv: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	buf := bufio.NewWriter(tmp)
	w := csv.NewWriter(buf)
	if err := w.Write(ExportHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(exportRow(r)); err != nil {
			return fmt.Errorf("csv: write row %d: %w", r.Index, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("csv: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("csv: close: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("csv: chmod: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("csv: rename into place: %w", err)
	}
	return nil
}

func exportRow(r *models.RankedExportRecord) []string {
	return []string{
		strconv.Itoa(r.Index),
		r.TConst,
		FormatFloat(r.AverageRating),
		strconv.FormatInt(r.NumVotes, 10),
		FormatFloat(r.WeightedRating),
		r.PrimaryTitle,
		strconv.Itoa(r.StartYear),
		strconv.Itoa(r.RuntimeMinutes),
	}
}

// FormatFloat renders f with the fewest digits that round-trip, always
// keeping a decimal point so 8 is written as "8.0".
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
