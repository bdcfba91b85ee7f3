package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/ai"
	"github.com/spigell/resume-scorer/internal/ai/gemini"
	"github.com/spigell/resume-scorer/internal/logger"
	"github.com/spigell/resume-scorer/internal/pipeline"
	"github.com/spigell/resume-scorer/internal/render"
	"github.com/spigell/resume-scorer/internal/screening"
	"github.com/spigell/resume-scorer/internal/secrets"
)

var reviewCmd = &cobra.Command{
	Use:   "review FILE",
	Short: "Analyse a resume and ask the AI provider for written feedback",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return bindFlags(cmd.Flags(), reviewBindings)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
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

		p, err := newPipeline(config, log)
		if err != nil {
			return err
		}

		doc, err := readDocument(args[0], config.Analyze.ContentType)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()

		res, text, err := p.AnalyzeWithText(ctx, doc)
		if err != nil {
			fmt.Fprintln(out, render.Card(screening.NewEntry(args[0], doc, nil, err)))
			return err
		}

		reviewer, err := newReviewer(cmd, config, log)
		if err != nil {
			return err
		}

		review, err := reviewer.Review(ctx, text, res)
		if err != nil {
			return fmt.Errorf("reviewing %s: %w", args[0], err)
		}

		if config.Analyze.Output == outputJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Result *pipeline.Result `json:"result"`
				Review *ai.Review       `json:"review"`
			}{res, review})
		}

		fmt.Fprintln(out, render.Card(screening.NewEntry(args[0], doc, res, nil)))
		fmt.Fprintln(out, render.Review(review))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	flags := reviewCmd.Flags()
	flags.String("content-type", "", "media type of the file instead of sniffing it")
	flags.StringP("output", "o", outputCard, "output format: card or json")
	flags.String("tone", "", "tone of the feedback, e.g. friendly or strict")
	flags.String("focus", "", "what the feedback should concentrate on")
	flags.String("instructions", "", "extra free-form instructions for the reviewer")
	flags.String("target-role", "", "role to review against instead of the detected one")

}

var reviewBindings = map[string]string{
	"analyze.content-type":   "content-type",
	"analyze.output":         "output",
	"ai.gemini.tone":         "tone",
	"ai.gemini.focus":        "focus",
	"ai.gemini.instructions": "instructions",
}

func newReviewer(cmd *cobra.Command, config *Config, log *zap.Logger) (ai.Reviewer, error) {
	geminiCfg := config.AI.Gemini

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: geminiCfg.APIKey,
		File:  geminiCfg.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, err
	}

	aiLog := logger.WithCommonFields(log, config.AI.Provider, geminiCfg.Model)

	gen, err := gemini.NewGenerator(cmd.Context(), apiKey, geminiCfg.Model, geminiCfg.MaxRetries, aiLog)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	targetRole, _ := cmd.Flags().GetString("target-role")

	reviewer := gemini.NewReviewer(gen, aiLog, geminiCfg.MaxLogLength, geminiCfg.MaxTextRunes)
	reviewer.SetPromptOverrides(gemini.PromptOverrides{
		TargetRole:       targetRole,
		Focus:            geminiCfg.Focus,
		Tone:             geminiCfg.Tone,
		UserInstructions: geminiCfg.Instructions,
	})

	return reviewer, nil
}
