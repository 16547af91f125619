package services

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"

	"imdb-rank/models"
	"imdb-rank/utils"
)

// ErrMissingColumn is returned when a required header column is absent.
var ErrMissingColumn = errors.New("missing required column")

const maxLineBytes = 4 * 1024 * 1024

var (
	titleColumns   = []string{"tconst", "titleType", "primaryTitle", "isAdult", "startYear", "runtimeMinutes"}
	ratingsColumns = []string{"tconst", "averageRating", "numVotes"}
)

// LoadStats counts what happened while parsing one source file.
// Coerced counts numeric cells that were neither numeric nor the missing
// token; such cells become absent and the row is kept. Malformed counts rows
// whose field count did not match the header; those rows are skipped.
type LoadStats struct {
	Rows      int
	Coerced   int
	Malformed int
}

// Loader parses the tab-separated IMDb dumps into typed records.
type Loader struct {
	logger *utils.Logger
}

// NewLoader creates a Loader with the given logger.
func NewLoader(logger *utils.Logger) *Loader {
	return &Loader{logger: logger}
}

// Open opens a dump for reading, transparently decompressing *.gz files.
func (l *Loader) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %q: %w", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("loader: gzip %q: %w", path, err)
	}
	return &gzipFile{Reader: zr, file: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	zerr := g.Reader.Close()
	ferr := g.file.Close()
	return errors.Join(zerr, ferr)
}

// ReadRatings parses title.ratings in full. The ratings file is small enough
// to index in memory; titles are streamed against it.
func (l *Loader) ReadRatings(r io.Reader) ([]*models.RawRating, LoadStats, error) {
	var ratings []*models.RawRating
	stats, err := scanTSV(r, ratingsColumns, func(row tsvRow) {
		rating := &models.RawRating{TConst: row.get("tconst")}
		var ok bool
		if rating.AverageRating, ok = parseFloatCell(row.get("averageRating")); !ok {
			row.stats.Coerced++
			l.logger.Debug("[loader] line %d: averageRating %q is not numeric", row.line, row.get("averageRating"))
		}
		if rating.NumVotes, ok = parseInt64Cell(row.get("numVotes")); !ok {
			row.stats.Coerced++
			l.logger.Debug("[loader] line %d: numVotes %q is not numeric", row.line, row.get("numVotes"))
		}
		ratings = append(ratings, rating)
	})
	if err != nil {
		return nil, stats, fmt.Errorf("loader: ratings: %w", err)
	}
	l.logger.Info("[loader] Read %s ratings (%d coerced cells, %d malformed rows)",
		humanize.Comma(int64(stats.Rows)), stats.Coerced, stats.Malformed)
	return ratings, stats, nil
}

// ScanTitles streams title.basics, calling fn once per parsed row. A non-nil
// error from fn stops the scan and is returned.
func (l *Loader) ScanTitles(r io.Reader, fn func(*models.RawTitle) error) (LoadStats, error) {
	var fnErr error
	stats, err := scanTSV(r, titleColumns, func(row tsvRow) {
		if fnErr != nil {
			return
		}
		t := &models.RawTitle{
			TConst:         row.get("tconst"),
			TitleType:      textCell(row.get("titleType")),
			PrimaryTitle:   textCell(row.get("primaryTitle")),
			OriginalTitle:  textCell(row.get("originalTitle")),
			StartYear:      stringCell(row.get("startYear")),
			EndYear:        stringCell(row.get("endYear")),
			RuntimeMinutes: stringCell(row.get("runtimeMinutes")),
			Genres:         listCell(row.get("genres")),
		}
		var ok bool
		if t.IsAdult, ok = parseIntCell(row.get("isAdult")); !ok {
			row.stats.Coerced++
			l.logger.Debug("[loader] line %d: isAdult %q is not numeric", row.line, row.get("isAdult"))
		}
		fnErr = fn(t)
	})
	if err == nil {
		err = fnErr
	}
	if err != nil {
		return stats, fmt.Errorf("loader: titles: %w", err)
	}
	l.logger.Info("[loader] Read %s titles (%d coerced cells, %d malformed rows)",
		humanize.Comma(int64(stats.Rows)), stats.Coerced, stats.Malformed)
	return stats, nil
}

// ReadTitles collects every title row. Use ScanTitles for full-size dumps.
func (l *Loader) ReadTitles(r io.Reader) ([]*models.RawTitle, LoadStats, error) {
	var titles []*models.RawTitle
	stats, err := l.ScanTitles(r, func(t *models.RawTitle) error {
		titles = append(titles, t)
		return nil
	})
	return titles, stats, err
}

type tsvRow struct {
	line   int
	fields []string
	index  map[string]int
	stats  *LoadStats
}

func (r tsvRow) get(col string) string {
	i, ok := r.index[col]
	if !ok {
		return models.MissingToken
	}
	return r.fields[i]
}

// scanTSV splits on tabs only. The IMDb dumps do not quote fields and titles
// may contain bare double quotes, so CSV quoting rules must not apply.
func scanTSV(r io.Reader, required []string, fn func(tsvRow)) (LoadStats, error) {
	var stats LoadStats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return stats, fmt.Errorf("read header: %w", err)
		}
		return stats, fmt.Errorf("%w: empty input, no header row", ErrMissingColumn)
	}
	header := strings.Split(strings.TrimRight(sc.Text(), "\r"), "\t")
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return stats, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	line := 1
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != len(header) {
			stats.Malformed++
			continue
		}
		stats.Rows++
		fn(tsvRow{line: line, fields: fields, index: index, stats: &stats})
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("read line %d: %w", line+1, err)
	}
	return stats, nil
}

func isMissing(cell string) bool {
	return cell == models.MissingToken || strings.TrimSpace(cell) == ""
}

func textCell(cell string) string {
	if cell == models.MissingToken {
		return ""
	}
	return cell
}

func stringCell(cell string) *string {
	if isMissing(cell) {
		return nil
	}
	return &cell
}

func listCell(cell string) []string {
	if isMissing(cell) {
		return nil
	}
	return strings.Split(cell, ",")
}

// parseIntCell returns (nil, true) for a missing cell and (nil, false) when
// the cell is present but not an integer.
func parseIntCell(cell string) (*int, bool) {
	if isMissing(cell) {
		return nil, true
	}
	n, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil {
		return nil, false
	}
	return &n, true
}

func parseInt64Cell(cell string) (*int64, bool) {
	if isMissing(cell) {
		return nil, true
	}
	n, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
	if err != nil {
		return nil, false
	}
	return &n, true
}

func parseFloatCell(cell string) (*float64, bool) {
	if isMissing(cell) {
		return nil, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	return &f, true
}
