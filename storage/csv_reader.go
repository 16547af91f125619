package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"imdb-rank/models"
)

// ErrBadExport is returned when a file does not have the export layout.
var ErrBadExport = errors.New("not an imdb-rank export")

// ReadExport parses an export file back into records, in file order.
func ReadExport(path string) ([]*models.RankedExportRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()
	return DecodeExport(f)
}

// DecodeExport parses export rows from r.
func DecodeExport(r io.Reader) ([]*models.RankedExportRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(ExportHeader)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}
	for i, name := range ExportHeader {
		if header[i] != name {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrBadExport, i, header[i], name)
		}
	}

	var records []*models.RankedExportRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: read row: %w", err)
		}
		rec, err := parseExportRow(row)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadExport, line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseExportRow(row []string) (*models.RankedExportRecord, error) {
	var (
		rec models.RankedExportRecord
		err error
	)
	if rec.Index, err = strconv.Atoi(row[0]); err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	rec.TConst = row[1]
	if rec.AverageRating, err = strconv.ParseFloat(row[2], 64); err != nil {
		return nil, fmt.Errorf("averageRating: %w", err)
	}
	if rec.NumVotes, err = strconv.ParseInt(row[3], 10, 64); err != nil {
		return nil, fmt.Errorf("numVotes: %w", err)
	}
	if rec.WeightedRating, err = strconv.ParseFloat(row[4], 64); err != nil {
		return nil, fmt.Errorf("weightedRating: %w", err)
	}
	rec.PrimaryTitle = row[5]
	if rec.StartYear, err = strconv.Atoi(row[6]); err != nil {
		return nil, fmt.Errorf("startYear: %w", err)
	}
	if rec.RuntimeMinutes, err = strconv.Atoi(row[7]); err != nil {
		return nil, fmt.Errorf("runtimeMinutes: %w", err)
	}
	return &rec, nil
}
