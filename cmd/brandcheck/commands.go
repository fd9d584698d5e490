package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/anime-shed/brand-inspector-go/internal/analyzer"
	"github.com/anime-shed/brand-inspector-go/internal/config"
	"github.com/anime-shed/brand-inspector-go/internal/factory"
	"github.com/anime-shed/brand-inspector-go/internal/logger"
	"github.com/anime-shed/brand-inspector-go/internal/matcher"
	"github.com/anime-shed/brand-inspector-go/internal/palette"
	"github.com/anime-shed/brand-inspector-go/internal/readiness"
	"github.com/anime-shed/brand-inspector-go/internal/report"
	"github.com/anime-shed/brand-inspector-go/internal/repository"
	"github.com/anime-shed/brand-inspector-go/internal/service"
	"github.com/anime-shed/brand-inspector-go/internal/storage"
	"github.com/anime-shed/brand-inspector-go/internal/textcheck"
	"github.com/anime-shed/brand-inspector-go/pkg/models"
	"github.com/anime-shed/brand-inspector-go/pkg/validation"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/text/language"
)

// app is the state shared by the report commands
type app struct {
	cfg    *config.Config
	output outputFlags
	match  matchFlags
}

// outputFlags control where results go
type outputFlags struct {
	out     string
	asJSON  bool
	db      string
	noColor bool
}

func (o *outputFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.out, "out", "", `write the markdown report into this directory (default from REPORT_DIR, "-" for stdout)`)
	fs.BoolVar(&o.asJSON, "json", false, "print the result as JSON")
	fs.StringVar(&o.db, "db", "", "also store the report in this SQLite database")
	fs.BoolVar(&o.noColor, "no-color", false, "never print color swatches")
}

// reportDir is the directory reports are written to; empty means stdout
func (o *outputFlags) reportDir(cfg *config.Config) string {
	switch o.out {
	case "-":
		return ""
	case "":
		return cfg.ReportDir
	default:
		return o.out
	}
}

// matchFlags override the configured classification settings. Only flags
// given on the command line replace the environment values.
type matchFlags struct {
	tolerance float64
	neutral   float64
	topN      int
	brand     string
	wrong     string
}

func (m *matchFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&m.tolerance, "tolerance", matcher.DefaultTolerance, "RGB distance below which a pixel matches")
	fs.Float64Var(&m.neutral, "neutral", matcher.DefaultNeutralThreshold, "channel spread below which a pixel counts as gray")
	fs.IntVar(&m.topN, "top", matcher.DefaultTopN, "number of unexpected colors to report")
	fs.StringVar(&m.brand, "brand", "", "brand palette as Name=#hex,... (default from BRAND_PALETTE)")
	fs.StringVar(&m.wrong, "wrong", "", "wrong palette as Name=#hex,... (default from WRONG_PALETTE)")
}

// apply copies the flags that were set into cfg
func (m *matchFlags) apply(fs *pflag.FlagSet, cfg *config.Config) error {
	if fs.Changed("tolerance") {
		cfg.Tolerance = m.tolerance
	}
	if fs.Changed("neutral") {
		cfg.NeutralThreshold = m.neutral
	}
	if fs.Changed("top") {
		cfg.UnexpectedTopN = m.topN
	}

	var err error
	if m.brand != "" {
		if cfg.BrandPalette, err = palette.Parse(m.brand); err != nil {
			return err
		}
	}
	if m.wrong != "" {
		if cfg.WrongPalette, err = palette.Parse(m.wrong); err != nil {
			return err
		}
	}
	return cfg.MatchOptions().Validate()
}

// setup routes logs to stderr and loads the configuration
func (a *app) setup(cmd *cobra.Command, args []string) error {
	logger.UseText(cmd.ErrOrStderr())

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	if err := a.match.apply(cmd.Flags(), cfg); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// session is a service wired for local use
type session struct {
	svc      service.InspectionService
	analyzer analyzer.BrandAnalyzer
	reports  repository.ReportRepository
}

func (a *app) newSession(db string, ocr textcheck.Engine) (*session, error) {
	cfg := a.cfg
	components := factory.NewComponentFactory(factory.SourceOptions{
		Azure: factory.AzureCredentials{
			AccountName: cfg.AzureAccountName,
			AccountKey:  cfg.AzureAccountKey,
		},
	})
	fetcher := storage.WithTimeout(factory.NewRouter(components.StorageFactory), cfg.ImageFetchTimeout)
	images := repository.NewImageRepository(fetcher, validation.NewLocalLocationValidator())

	s := &session{analyzer: analyzer.NewBrandAnalyzer(cfg.Workers)}
	if db != "" {
		reports, err := repository.NewSQLiteReportRepository(db)
		if err != nil {
			s.analyzer.Close()
			return nil, err
		}
		s.reports = reports
	}

	s.svc = service.NewInspectionService(service.Dependencies{
		Images:   images,
		Reports:  s.reports,
		Analyzer: s.analyzer,
		OCR:      ocr,
		Renderer: report.NewRenderer(language.English),
	}, service.Defaults{
		Match:        cfg.MatchOptions(),
		Brand:        cfg.BrandPalette,
		Wrong:        cfg.WrongPalette,
		Extract:      analyzer.DefaultExtractOptions(),
		BatchWorkers: cfg.Workers,
	})
	return s, nil
}

func (s *session) Close() {
	s.svc.Close()
	s.analyzer.Close()
	if s.reports != nil {
		s.reports.Close()
	}
}

// emit writes the result as JSON, to a report file, or as markdown to stdout.
// It reports whether swatches may follow on stdout.
func (a *app) emit(cmd *cobra.Command, markdown string, result any) (bool, error) {
	stdout := cmd.OutOrStdout()

	if a.output.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return false, enc.Encode(result)
	}

	if dir := a.output.reportDir(a.cfg); dir != "" {
		path, err := report.WriteFile(dir, time.Now(), func(w io.Writer) error {
			_, err := io.WriteString(w, markdown)
			return err
		})
		if err != nil {
			return false, err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)
	} else if _, err := io.WriteString(stdout, markdown); err != nil {
		return false, err
	}
	return !a.output.noColor && isTerminal(stdout), nil
}

func newClassifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <location>",
		Short: "Classify pixels against one palette",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSession(a.output.db, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			resp, err := s.svc.Classify(cmd.Context(), models.ClassifyRequest{Location: args[0]})
			if err != nil {
				return err
			}
			color, err := a.emit(cmd, resp.Markdown, resp)
			if err != nil {
				return err
			}
			if color {
				printMatches(cmd.OutOrStdout(), "Palette", resp.Result.Matches)
				printUnexpected(cmd.OutOrStdout(), resp.Result.Unexpected)
			}
			return nil
		},
	}
}

func newVerifyCmd(a *app) *cobra.Command {
	var skipWrong bool

	cmd := &cobra.Command{
		Use:   "verify <location>",
		Short: "Check brand colors are used and wrong colors are not",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSession(a.output.db, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			resp, err := s.svc.Verify(cmd.Context(), models.VerifyRequest{Location: args[0], SkipWrong: skipWrong})
			if err != nil {
				return err
			}
			color, err := a.emit(cmd, resp.Markdown, resp)
			if err != nil {
				return err
			}
			if color {
				printMatches(cmd.OutOrStdout(), "Brand colors", resp.Verification.Brand.Matches)
				if resp.Verification.Wrong != nil {
					printMatches(cmd.OutOrStdout(), "Wrong colors", resp.Verification.Wrong.Matches)
				}
			}

			if resp.Verdict != analyzer.VerdictSuccess {
				return &verdictError{msg: resp.VerdictLine}
			}
			fmt.Fprintln(cmd.ErrOrStderr(), resp.VerdictLine)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipWrong, "no-wrong", false, "skip the wrong color check")
	return cmd
}

func newExtractCmd(a *app) *cobra.Command {
	defaults := analyzer.DefaultExtractOptions()
	settings := models.ExtractSettings{
		Count:            &defaults.Count,
		ClusterThreshold: &defaults.ClusterThreshold,
		Keep:             &defaults.Keep,
	}

	cmd := &cobra.Command{
		Use:   "extract <location>",
		Short: "List the dominant colors with Flutter constants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSession(a.output.db, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			resp, err := s.svc.Extract(cmd.Context(), models.ExtractRequest{Location: args[0], Settings: &settings})
			if err != nil {
				return err
			}
			color, err := a.emit(cmd, resp.Markdown, resp)
			if err != nil {
				return err
			}
			if color {
				printExtracted(cmd.OutOrStdout(), resp.Extraction.Colors)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(settings.Count, "count", defaults.Count, "number of distinct colors to cluster")
	cmd.Flags().Float64Var(settings.ClusterThreshold, "threshold", defaults.ClusterThreshold, "RGB distance that merges two colors into one cluster")
	cmd.Flags().IntVar(settings.Keep, "keep", defaults.Keep, "number of clusters to report")
	return cmd
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <location>",
		Short: "Check the screenshot is not a blank page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.newSession(a.output.db, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			resp, err := s.svc.Inspect(cmd.Context(), models.InspectRequest{Location: args[0]})
			if err != nil {
				return err
			}
			if _, err := a.emit(cmd, resp.Markdown, resp); err != nil {
				return err
			}
			if !resp.Content.HasContent {
				return &verdictError{msg: "Screenshot looks blank"}
			}
			return nil
		},
	}
}

func newTextCmd(a *app) *cobra.Command {
	var (
		expected      string
		labels        string
		minSimilarity float64
		lang          string
	)

	cmd := &cobra.Command{
		Use:   "text <location>",
		Short: "Compare the text in the screenshot with the expected copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if lang == "" {
				lang = a.cfg.OCRLanguage
			}
			s, err := a.newSession("", textcheck.NewTesseractEngine(lang))
			if err != nil {
				return err
			}
			defer s.Close()

			resp, err := s.svc.CheckText(cmd.Context(), models.TextRequest{
				Location:      args[0],
				ExpectedText:  expected,
				Labels:        splitList(labels),
				MinSimilarity: minSimilarity,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return err
			}
			if !resp.Comparison.AllLabelsFound() {
				return &verdictError{msg: "Missing labels: " + strings.Join(resp.Comparison.MissingLabels, ", ")}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&expected, "expect", "", "expected text of the screen")
	cmd.Flags().StringVar(&labels, "labels", "", "comma separated UI labels that must be visible")
	cmd.Flags().Float64Var(&minSimilarity, "min-similarity", textcheck.DefaultLabelSimilarity, "similarity a label needs to count as found")
	cmd.Flags().StringVar(&lang, "lang", "", "tesseract language, e.g. eng or eng+deu (default from OCR_LANGUAGE)")
	return cmd
}

func newWaitCmd() *cobra.Command {
	opts := readiness.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "wait <url>",
		Short: "Poll an URL until the app under test answers 200",
		Args:  cobra.ExactArgs(1),
		// Polling needs no image configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.UseText(cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			elapsed, err := readiness.WaitForHTTP(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s ready after %s\n", args[0], elapsed.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().DurationVar(&opts.Interval, "interval", opts.Interval, "time between attempts")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", opts.Timeout, "give up after this long")
	cmd.Flags().DurationVar(&opts.RequestTimeout, "request-timeout", opts.RequestTimeout, "timeout of a single attempt")
	cmd.Flags().DurationVar(&opts.Settle, "settle", opts.Settle, "extra wait once the app answers")
	return cmd
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
