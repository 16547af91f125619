package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/unicode/norm"

	"imdb-rank/models"
	"imdb-rank/utils"
)

// yearRegexp captures a 4-digit year anchored at the start of the cell.
var yearRegexp = regexp.MustCompile(`^(\d{4})`)

// Calendar bounds for an extracted start year.
const (
	minStartYear = 1870
	maxStartYear = 2100
)

// DropReason says why the cleaner rejected a record.
type DropReason int

const (
	Kept DropReason = iota
	DroppedAdult
	DroppedType
)

func (r DropReason) String() string {
	switch r {
	case DroppedAdult:
		return "adult"
	case DroppedType:
		return "type"
	default:
		return "kept"
	}
}

// Cleaner filters joined records to the target title type and coerces
// year and runtime.
type Cleaner struct {
	logger     *utils.Logger
	targetType string

	kept         int
	droppedAdult int
	droppedType  int
}

// NewCleaner creates a Cleaner that keeps titles whose type equals
// targetType exactly.
func NewCleaner(logger *utils.Logger, targetType string) *Cleaner {
	return &Cleaner{logger: logger, targetType: targetType}
}

// Clean converts one joined record. The record is nil unless the reason is
// Kept.
func (c *Cleaner) Clean(j *models.JoinedRecord) (*models.CleanedRecord, DropReason) {
	if j.IsAdult == nil || *j.IsAdult != 0 {
		c.droppedAdult++
		return nil, DroppedAdult
	}
	if j.TitleType != c.targetType {
		c.droppedType++
		return nil, DroppedType
	}

	c.kept++
	return &models.CleanedRecord{
		TConst:         j.TConst,
		PrimaryTitle:   normaliseText(j.PrimaryTitle),
		StartYear:      ExtractYear(j.StartYear),
		RuntimeMinutes: ParseRuntime(j.RuntimeMinutes),
		AverageRating:  j.AverageRating,
		NumVotes:       j.NumVotes,
	}, Kept
}

// CleanAll cleans a whole table and logs the outcome.
func (c *Cleaner) CleanAll(joined []*models.JoinedRecord) []*models.CleanedRecord {
	result := make([]*models.CleanedRecord, 0, len(joined))
	for _, j := range joined {
		if rec, reason := c.Clean(j); reason == Kept {
			result = append(result, rec)
		}
	}
	c.LogSummary()
	return result
}

// LogSummary reports the counters accumulated so far.
func (c *Cleaner) LogSummary() {
	c.logger.Info("[cleaner] Kept %s %q titles (dropped %s adult, %s other types)",
		humanize.Comma(int64(c.kept)), c.targetType,
		humanize.Comma(int64(c.droppedAdult)), humanize.Comma(int64(c.droppedType)))
}

// Counts returns kept, adult-dropped and type-dropped totals.
func (c *Cleaner) Counts() (kept, adult, other int) {
	return c.kept, c.droppedAdult, c.droppedType
}

// ExtractYear reads the leading 4-digit year of raw. "1999-2001" gives 1999;
// "abc1999", "99" and the empty string give nil.
func ExtractYear(raw *string) *int {
	if raw == nil {
		return nil
	}
	m := yearRegexp.FindStringSubmatch(*raw)
	if len(m) < 2 {
		return nil
	}
	year, err := strconv.Atoi(m[1])
	if err != nil || year < minStartYear || year > maxStartYear {
		return nil
	}
	return &year
}

// ParseRuntime converts a runtime cell to whole minutes. Non-integer and
// negative values give nil.
func ParseRuntime(raw *string) *int {
	if raw == nil {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// normaliseText strips leading/trailing whitespace, collapses internal
// whitespace and applies NFC so visually equal titles compare equal.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return norm.NFC.String(strings.Join(fields, " "))
}
