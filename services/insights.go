package services

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"imdb-rank/models"
	"imdb-rank/utils"
)

// Cut-offs for the reporting views.
const (
	// Releases after this year were incomplete in the dump.
	countMaxYear = 2018
	// Before 1915 many features are catalogued as shorts.
	trendMinYearExclusive = 1914
	trendMaxYearExclusive = 2019
	// Runtime outliers above five hours distort the means.
	runtimeCapExclusive = 300
	votesVsRatingCap    = 80000
	runtimeVsVotesCap   = 100000
	densityBins         = 80
)

// StatsFileName is the report written into the static directory.
const StatsFileName = "stats.json"

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes the reporting aggregates over cleaned records.
func (s *InsightService) Generate(cleaned []*models.CleanedRecord) *models.InsightReport {
	report := &models.InsightReport{TotalMovies: len(cleaned)}
	if len(cleaned) == 0 {
		return report
	}

	perYear := make(map[int]float64)
	ratingsByYear := make(map[int][]float64)
	runtimesByYear := make(map[int][]float64)

	var votesX, votesY []float64
	var rtRatingX, rtRatingY []float64
	var rtVotesX, rtVotesY []float64

	for _, c := range cleaned {
		if c.StartYear != nil && *c.StartYear <= countMaxYear {
			perYear[*c.StartYear]++
		}

		if c.StartYear != nil && c.RuntimeMinutes != nil && c.AverageRating != nil {
			y := *c.StartYear
			if y > trendMinYearExclusive && y < trendMaxYearExclusive {
				ratingsByYear[y] = append(ratingsByYear[y], *c.AverageRating)
				if *c.RuntimeMinutes < runtimeCapExclusive {
					runtimesByYear[y] = append(runtimesByYear[y], float64(*c.RuntimeMinutes))
				}
			}
		}

		if c.NumVotes != nil && c.AverageRating != nil && *c.NumVotes < votesVsRatingCap {
			votesX = append(votesX, float64(*c.NumVotes))
			votesY = append(votesY, *c.AverageRating)
		}

		if c.AverageRating != nil && c.RuntimeMinutes != nil && c.NumVotes != nil &&
			*c.RuntimeMinutes < runtimeCapExclusive {
			rtRatingX = append(rtRatingX, float64(*c.RuntimeMinutes))
			rtRatingY = append(rtRatingY, *c.AverageRating)
			if *c.NumVotes < runtimeVsVotesCap {
				rtVotesX = append(rtVotesX, float64(*c.RuntimeMinutes))
				rtVotesY = append(rtVotesY, float64(*c.NumVotes))
			}
		}
	}

	report.MoviesPerYear = series(perYear)
	report.RatingPerYear = meanSeries(ratingsByYear)
	report.RuntimePerYear = meanSeries(runtimesByYear)
	report.VotesVsRating = Histogram2D("ratings-vs-votes", "Number of Votes", "Average Rating", votesX, votesY, densityBins)
	report.RuntimeVsRating = Histogram2D("ratings-vs-runtime", "Running Time [mins]", "Average Rating", rtRatingX, rtRatingY, densityBins)
	report.RuntimeVsVotes = Histogram2D("votes-vs-runtime", "Running Time [mins]", "Total Number of Votes", rtVotesX, rtVotesY, densityBins)

	s.logger.Info("[insights] %d years counted, %d years with rating trend", len(report.MoviesPerYear), len(report.RatingPerYear))
	return report
}

func series(m map[int]float64) []models.YearValue {
	out := make([]models.YearValue, 0, len(m))
	for y, v := range m {
		out = append(out, models.YearValue{Year: y, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

func meanSeries(m map[int][]float64) []models.YearValue {
	means := make(map[int]float64, len(m))
	for y, vals := range m {
		means[y] = stat.Mean(vals, nil)
	}
	return series(means)
}

// Histogram2D bins (x[i], y[i]) pairs into a bins×bins grid spanning the data
// range, like numpy's histogram2d. A degenerate axis is widened by 0.5 either
// side. It returns nil when there are no points.
func Histogram2D(name, xLabel, yLabel string, x, y []float64, bins int) *models.Density2D {
	if len(x) == 0 || len(x) != len(y) || bins < 1 {
		return nil
	}
	d := &models.Density2D{
		Name:   name,
		XLabel: xLabel,
		YLabel: yLabel,
		XEdges: edges(x, bins),
		YEdges: edges(y, bins),
		Counts: make([][]float64, bins),
		Points: len(x),
	}
	for i := range d.Counts {
		d.Counts[i] = make([]float64, bins)
	}
	for i := range x {
		d.Counts[binOf(d.XEdges, x[i])][binOf(d.YEdges, y[i])]++
	}
	return d
}

func edges(vals []float64, bins int) []float64 {
	lo, hi := floats.Min(vals), floats.Max(vals)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	return floats.Span(make([]float64, bins+1), lo, hi)
}

func binOf(edges []float64, v float64) int {
	bins := len(edges) - 1
	lo, hi := edges[0], edges[bins]
	i := int((v - lo) / (hi - lo) * float64(bins))
	if i < 0 {
		return 0
	}
	if i >= bins {
		return bins - 1
	}
	return i
}

// Peak returns the centre of the densest bin and its count.
func Peak(d *models.Density2D) (x, y, count float64) {
	if d == nil {
		return 0, 0, 0
	}
	for i, row := range d.Counts {
		for j, c := range row {
			if c > count {
				count = c
				x = (d.XEdges[i] + d.XEdges[i+1]) / 2
				y = (d.YEdges[j] + d.YEdges[j+1]) / 2
			}
		}
	}
	return x, y, count
}

// WriteJSON writes the report as StatsFileName inside dir.
func (s *InsightService) WriteJSON(r *models.InsightReport, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("insights: create dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("insights: encode: %w", err)
	}
	path := filepath.Join(dir, StatsFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("insights: write %q: %w", path, err)
	}
	s.logger.Info("[insights] Report written to %s", path)
	return path, nil
}

// Print renders the per-year trends and density peaks as tables.
func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	fmt.Fprintf(w, "\n  Movies analysed: %d\n\n", r.TotalMovies)

	years := make(map[int][3]string)
	set := func(vals []models.YearValue, col int, format func(float64) string) {
		for _, v := range vals {
			row := years[v.Year]
			row[col] = format(v.Value)
			years[v.Year] = row
		}
	}
	set(r.MoviesPerYear, 0, func(f float64) string { return strconv.Itoa(int(f)) })
	set(r.RatingPerYear, 1, func(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) })
	set(r.RuntimePerYear, 2, func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) })

	ordered := make([]int, 0, len(years))
	for y := range years {
		ordered = append(ordered, y)
	}
	sort.Ints(ordered)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Year", "Movies", "Mean Rating", "Mean Runtime"})
	for _, y := range ordered {
		row := years[y]
		tw.AppendRow(table.Row{y, row[0], row[1], row[2]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	tw.Render()

	dt := table.NewWriter()
	dt.SetOutputMirror(w)
	dt.SetStyle(table.StyleRounded)
	dt.AppendHeader(table.Row{"Density", "X", "Y", "Points", "Peak X", "Peak Y", "Peak Count"})
	for _, d := range []*models.Density2D{r.VotesVsRating, r.RuntimeVsRating, r.RuntimeVsVotes} {
		if d == nil {
			continue
		}
		px, py, pc := Peak(d)
		dt.AppendRow(table.Row{d.Name, d.XLabel, d.YLabel, d.Points,
			strconv.FormatFloat(px, 'f', 1, 64), strconv.FormatFloat(py, 'f', 2, 64), int(pc)})
	}
	dt.Render()
}
