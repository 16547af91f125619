package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"imdb-rank/config"
	"imdb-rank/models"
	"imdb-rank/services"
	"imdb-rank/storage"
	"imdb-rank/utils"
)

// commandContext carries what PersistentPreRunE loaded to the subcommands.
type commandContext struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *utils.Logger
}

func (c *commandContext) load() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = utils.NewLogger()
	level := cfg.LogLevel
	if c.logLevel != "" {
		level = c.logLevel
	}
	c.logger.SetLevel(utils.ParseLevel(level))
	return nil
}

func (c *commandContext) pipelineOptions(keepCleaned bool) services.PipelineOptions {
	return services.PipelineOptions{
		TargetType:  c.cfg.TargetType,
		PriorRating: c.cfg.PriorRating,
		PriorWeight: c.cfg.PriorWeight,
		TopN:        c.cfg.TopN,
		KeepCleaned: keepCleaned,
	}
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "imdb-rank",
		Short:         "Rank IMDb titles by weighted rating and export them for bulk import",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.load()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newLoadCommand(ctx))
	rootCmd.AddCommand(newBrowseCommand(ctx))
	rootCmd.AddCommand(newSearchCommand(ctx))

	return rootCmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		basics, ratings, output, staticDir string
		topN                               int
		withStats                          bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Join, clean, score and rank the dumps and write the export file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.cfg
			overrideString(cmd, "basics", &cfg.BasicsPath, basics)
			overrideString(cmd, "ratings", &cfg.RatingsPath, ratings)
			overrideString(cmd, "output", &cfg.OutputPath, output)
			overrideString(cmd, "static-dir", &cfg.StaticDir, staticDir)
			if cmd.Flags().Changed("top") {
				cfg.TopN = topN
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			lock := utils.LockFor(cfg.OutputPath)
			if err := lock.Acquire(); err != nil {
				return err
			}
			defer func() {
				if err := lock.Release(); err != nil {
					ctx.logger.Warn("[run] %v", err)
				}
			}()

			ctx.logger.Info("=== imdb-rank starting ===")
			ctx.logger.Info("Inputs: %s + %s | output: %s", cfg.BasicsPath, cfg.RatingsPath, cfg.OutputPath)

			p := services.NewPipeline(ctx.pipelineOptions(withStats), ctx.logger)
			res, err := p.Run(cfg.BasicsPath, cfg.RatingsPath, storage.NewCSVWriter(cfg.OutputPath))
			if err != nil {
				return err
			}
			res.Summary.OutputPath = cfg.OutputPath
			printSummary(cmd.OutOrStdout(), res.Summary)

			if withStats {
				return reportStats(cmd.OutOrStdout(), ctx, res.Cleaned)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&basics, "basics", "", "title.basics TSV (optionally .gz)")
	cmd.Flags().StringVar(&ratings, "ratings", "", "title.ratings TSV (optionally .gz)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "export CSV path")
	cmd.Flags().StringVar(&staticDir, "static-dir", "", "directory for the statistics report")
	cmd.Flags().IntVar(&topN, "top", 0, "number of titles to keep")
	cmd.Flags().BoolVar(&withStats, "stats", false, "also compute aggregate statistics")
	return cmd
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var staticDir string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Compute aggregate statistics over the cleaned titles without exporting",
		RunE: func(cmd *cobra.Command, args []string) error {
			overrideString(cmd, "static-dir", &ctx.cfg.StaticDir, staticDir)

			p := services.NewPipeline(ctx.pipelineOptions(true), ctx.logger)
			loader := services.NewLoader(ctx.logger)
			titles, err := loader.Open(ctx.cfg.BasicsPath)
			if err != nil {
				return err
			}
			defer titles.Close()
			ratings, err := loader.Open(ctx.cfg.RatingsPath)
			if err != nil {
				return err
			}
			defer ratings.Close()

			res, err := p.Process(titles, ratings)
			if err != nil {
				return err
			}
			return reportStats(cmd.OutOrStdout(), ctx, res.Cleaned)
		},
	}
	cmd.Flags().StringVar(&staticDir, "static-dir", "", "directory for the statistics report")
	return cmd
}

func reportStats(w io.Writer, ctx *commandContext, cleaned []*models.CleanedRecord) error {
	svc := services.NewInsightService(ctx.logger)
	report := svc.Generate(cleaned)
	svc.Print(w, report)
	if ctx.cfg.StaticDir == "" {
		return nil
	}
	_, err := svc.WriteJSON(report, ctx.cfg.StaticDir)
	return err
}

func newLoadCommand(ctx *commandContext) *cobra.Command {
	var input, driver string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Bulk-load an export file into the movie store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.cfg
			overrideString(cmd, "input", &cfg.OutputPath, input)
			overrideString(cmd, "driver", &cfg.StoreDriver, driver)
			if err := cfg.Validate(); err != nil {
				return err
			}

			store, err := storage.OpenStore(cmd.Context(), cfg, ctx.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			ranking, err := storage.OpenRanking(cmd.Context(), cfg, ctx.logger)
			if err != nil {
				ctx.logger.Warn("[load] Ranking mirror unavailable: %v", err)
			}
			if ranking != nil {
				defer ranking.Close()
			}

			batch := uuid.NewString()
			n, err := services.NewImporter(store, ranking, ctx.logger).Import(cmd.Context(), cfg.OutputPath, batch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s movies from %s (batch %s)\n",
				humanize.Comma(int64(n)), cfg.OutputPath, batch)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "export CSV to load (default: output_path)")
	cmd.Flags().StringVar(&driver, "driver", "", "postgres or sqlite")
	return cmd
}

func newBrowseCommand(ctx *commandContext) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "browse [category]",
		Short: "List stored movies ordered by rank, rating, num_votes, weighted_rating, year, runtime or title",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := "rank"
			if len(args) == 1 {
				category = args[0]
			}
			store, err := storage.OpenStore(cmd.Context(), ctx.cfg, ctx.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			p, err := store.Browse(cmd.Context(), category, page)
			if err != nil {
				return err
			}
			renderMovies(cmd.OutOrStdout(), p.Movies)
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d (%s movies)\n", p.Page, p.TotalPages, humanize.Comma(int64(p.Total)))
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var f storage.SearchFilter

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search stored movies by title and numeric ranges",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.OpenStore(cmd.Context(), ctx.cfg, ctx.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			movies, err := store.Search(cmd.Context(), f)
			if err != nil {
				return err
			}
			renderMovies(cmd.OutOrStdout(), movies)
			fmt.Fprintf(cmd.OutOrStdout(), "%d matches\n", len(movies))
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.Title, "title", "", "title contains (case-insensitive)")
	flags.IntVar(&f.MinYear, "min-year", 0, "")
	flags.IntVar(&f.MaxYear, "max-year", 0, "")
	flags.IntVar(&f.MinRank, "min-rank", 0, "")
	flags.IntVar(&f.MaxRank, "max-rank", 0, "")
	flags.Float64Var(&f.MinRating, "min-rating", 0, "")
	flags.Float64Var(&f.MaxRating, "max-rating", 0, "")
	flags.Int64Var(&f.MinVotes, "min-votes", 0, "")
	flags.Int64Var(&f.MaxVotes, "max-votes", 0, "")
	flags.IntVar(&f.MinRuntime, "min-runtime", 0, "")
	flags.IntVar(&f.MaxRuntime, "max-runtime", 0, "")
	flags.IntVar(&f.Limit, "limit", storage.PageSize, "maximum results, 0 for all")
	return cmd
}

func overrideString(cmd *cobra.Command, flag string, dst *string, val string) {
	if cmd.Flags().Changed(flag) {
		*dst = val
	}
}

func printSummary(w io.Writer, s *models.RunSummary) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Run " + s.RunID)
	rows := []struct {
		label string
		n     int
	}{
		{"Titles read", s.TitlesRead},
		{"Ratings read", s.RatingsRead},
		{"Duplicate ratings ignored", s.DupRatings},
		{"Duplicate titles ignored", s.DupTitles},
		{"Titles without rating", s.Unrated},
		{"Dropped (adult)", s.DroppedAdult},
		{"Dropped (type)", s.DroppedType},
		{"Cleaned", s.Cleaned},
		{"Scored", s.Scored},
		{"Exported", s.Exported},
		{"Coerced cells", s.Coerced},
		{"Malformed rows", s.Malformed},
	}
	for _, r := range rows {
		tw.AppendRow(table.Row{r.label, humanize.Comma(int64(r.n))})
	}
	tw.AppendFooter(table.Row{"Output", s.OutputPath})
	tw.AppendFooter(table.Row{"Duration", s.Duration.Round(time.Millisecond).String()})
	tw.Render()
}

func renderMovies(w io.Writer, movies []*models.Movie) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Rank", "ID", "Title", "Year", "Runtime", "Rating", "Votes", "Weighted"})
	for _, m := range movies {
		runtime := ""
		if m.Runtime != nil {
			runtime = strconv.Itoa(*m.Runtime)
		}
		tw.AppendRow(table.Row{m.Rank, m.ID, m.Title, m.Year, runtime,
			strconv.FormatFloat(m.Rating, 'f', 1, 64), humanize.Comma(m.NumVotes),
			strconv.FormatFloat(m.WeightedRating, 'f', 3, 64)})
	}
	tw.Render()
}
