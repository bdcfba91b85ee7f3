package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/resume-scorer/internal/client"
	"github.com/spigell/resume-scorer/internal/pipeline"
	"github.com/spigell/resume-scorer/internal/render"
	"github.com/spigell/resume-scorer/internal/screening"
	"github.com/spigell/resume-scorer/internal/server"
)

const (
	PromptShowDocument        = "Show a document"
	PromptReportByRoles       = "Report by roles"
	PromptResultsToFile       = "Dump results to file"
	PromptAppendToExcludeFile = "Append all documents to exclude file"
	PromptExit                = "Exit"
	PromptBack                = "back"

	outputCard = "card"
	outputJSON = "json"
)

var errExit = errors.New("exit requested")

var analyzeCmd = &cobra.Command{
	Use:   "analyze PATH...",
	Short: "Analyse resume files and directories",
	Args:  cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return bindFlags(cmd.Flags(), analyzeBindings)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return analyze(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	flags := analyzeCmd.Flags()
	flags.String("content-type", "", "media type for every file instead of sniffing it")
	flags.StringP("output", "o", outputCard, "output format: card or json")
	flags.Int("workers", 4, "number of documents analysed concurrently")
	flags.String("remote", "", "URL of a running resume-scorer server to analyse on instead of locally")
	flags.BoolP("no-prompt", "y", false, "print results and exit without the interactive menu")
	flags.Bool("show-failed", false, "keep documents that could not be analysed in the results")
	flags.StringP("exclude-file", "e", "", "file with documents to exclude. Default is unset.")
	flags.StringSlice("exclude-path", nil, "skip documents read from these paths")
	flags.Int("minimum-score", 0, "drop documents with a lower ATS score")
	flags.StringSlice("role", nil, "keep only documents classified into these roles")
	flags.StringSlice("skill", nil, "keep only documents showing all of these skills")
}

var analyzeBindings = map[string]string{
	"analyze.content-type":    "content-type",
	"analyze.output":          "output",
	"analyze.workers":         "workers",
	"analyze.remote":          "remote",
	"screening.exclude-file":  "exclude-file",
	"screening.exclude-paths": "exclude-path",
	"screening.minimum-score": "minimum-score",
	"screening.roles":         "role",
	"screening.skills":        "skill",
}

func analyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := newLogger(true)
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	config, err := getConfig()
	if err != nil {
		return err
	}

	analyzer, err := newAnalyzer(ctx, config, log)
	if err != nil {
		return err
	}

	paths, err := collectPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		log.Info("exiting", zap.String("reason", "no files found"))
		return nil
	}

	log.Info("starting the analysis", zap.Int("documents", len(paths)), zap.Int("workers", config.Analyze.Workers))

	results, err := analyzeAll(ctx, analyzer, paths, config.Analyze)
	if err != nil {
		return err
	}

	steps := screening.Default()
	if show, _ := cmd.Flags().GetBool("show-failed"); show {
		screening.DisableByName(steps, "failed", "show-failed flag is set")
	}

	for _, status := range screening.Describe(steps) {
		log.Debug("filter configured", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled), zap.String("reason", status.Reason))
	}

	results, err = screening.Run(ctx, &config.Screening, screening.Deps{Logger: log}, steps, results)
	if err != nil {
		return fmt.Errorf("screening failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := printResults(out, results, config.Analyze.Output); err != nil {
		return err
	}

	noPrompt, _ := cmd.Flags().GetBool("no-prompt")
	if noPrompt || config.Analyze.Output == outputJSON || results.Len() == 0 {
		return nil
	}

	prompt := promptui.Select{
		Label: "What next?",
		Items: actions(config.Screening.ExcludeFile),
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		if err := handleAction(action, out, log, config, results); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			return err
		}
	}
}

// newAnalyzer returns the local pipeline, or a client of the remote server
// when one is configured.
func newAnalyzer(ctx context.Context, config *Config, log *zap.Logger) (server.Analyzer, error) {
	if config.Analyze.Remote == "" {
		p, err := newPipeline(config, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	}

	c := client.New(config.Analyze.Remote, config.Analyze.RemoteTimeout, log)
	if err := c.Health(ctx); err != nil {
		return nil, fmt.Errorf("remote server %s: %w", config.Analyze.Remote, err)
	}

	log.Info("analysing on remote server", zap.String("url", config.Analyze.Remote))
	return c, nil
}

// analyzeAll runs every path through the analyzer, keeping the input order
// in the results. Failures without a category (cancellation, transport)
// abort the whole batch.
func analyzeAll(ctx context.Context, analyzer server.Analyzer, paths []string, cfg AnalyzeConfig) (*screening.Results, error) {
	entries := make([]*screening.Entry, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for i, path := range paths {
		g.Go(func() error {
			doc, err := readDocument(path, cfg.ContentType)
			if err != nil {
				return err
			}

			res, err := analyzer.Analyze(gCtx, doc)
			if err != nil && pipeline.CategoryOf(err) == "" {
				return fmt.Errorf("analysing %s: %w", path, err)
			}

			entries[i] = screening.NewEntry(path, doc, res, err)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &screening.Results{Items: entries}, nil
}

func printResults(w io.Writer, results *screening.Results, output string) error {
	if output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, entry := range results.Items {
		fmt.Fprintln(w, render.Card(entry))
	}
	fmt.Fprintln(w, render.Summary(results))
	return nil
}

func actions(excludeFile string) []string {
	items := []string{PromptShowDocument, PromptReportByRoles, PromptResultsToFile}
	if excludeFile != "" {
		items = append(items, PromptAppendToExcludeFile)
	}
	return append(items, PromptExit)
}

func handleAction(action string, out io.Writer, log *zap.Logger, config *Config, results *screening.Results) error {
	switch action {
	case PromptExit:
		log.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptShowDocument:
		return showDocument(out, results)
	case PromptReportByRoles:
		pretty, _ := json.MarshalIndent(results.ReportByRole(), "", "  ")
		fmt.Fprintln(out, string(pretty))
		return nil
	case PromptResultsToFile:
		filename, err := results.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		log.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		return appendToExcludeFile(log, config.Screening.ExcludeFile, results)
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func showDocument(out io.Writer, results *screening.Results) error {
	items := make([]string, 0, results.Len()+1)
	for _, e := range results.Items {
		label := e.ID + " " + e.Name
		if e.Result != nil {
			label += fmt.Sprintf(" / %s / ats %d", e.Result.Role, e.Result.ATSScore)
		}
		items = append(items, label)
	}

	documentPrompt := promptui.Select{
		Label: "Choose a document and press ENTER",
		Items: append(items, PromptBack),
	}

	_, selected, err := documentPrompt.Run()
	if err != nil {
		return err
	}
	if selected == PromptBack {
		return nil
	}

	id, _, _ := strings.Cut(selected, " ")
	entry := results.FindByID(id)
	if entry == nil {
		return fmt.Errorf("there is no such document id %s", id)
	}

	fmt.Fprintln(out, render.Card(entry))
	return nil
}

func appendToExcludeFile(log *zap.Logger, path string, results *screening.Results) error {
	excluded, err := screening.LoadExcluded(path)
	if err != nil {
		return err
	}

	excluded.Append(results.ToExcluded())

	if err := excluded.ToFile(path); err != nil {
		return err
	}

	log.Info("appended to exclude file", zap.String("filename", path), zap.Int("documents", results.Len()))

	results.Exclude(screening.EntryIDField, excluded.IDs())
	return errExit
}
