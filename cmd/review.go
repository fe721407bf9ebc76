package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/revu-dev/revu/internal/aireview"
	"github.com/revu-dev/revu/internal/config"
	"github.com/revu-dev/revu/internal/observability"
	"github.com/revu-dev/revu/internal/orchestrator"
	"github.com/revu-dev/revu/internal/reporting"
)

// errFindings signals a completed review that reported findings, so the
// process exits nonzero for CI gating without an error banner.
var errFindings = errors.New("review reported findings")

// newReviewCmd creates and configures the `review` command.
func newReviewCmd() *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review [file]",
		Short: "Reviews a Python snippet from a file or stdin",
		Long: `Runs the full review pipeline over the given file, or over stdin when no
file is named. Exits 1 when any tool reports findings.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags so they override config file and environment values.
			if err := viper.BindPFlag("review.runtime_probe", cmd.Flags().Lookup("runtime-probe")); err != nil {
				return err
			}
			if err := viper.BindPFlag("review.quick_fix", cmd.Flags().Lookup("quick-fix")); err != nil {
				return err
			}
			if err := viper.BindPFlag("review.warnings_as_errors", cmd.Flags().Lookup("warnings-as-errors")); err != nil {
				return err
			}
			if err := viper.BindPFlag("review.capture_warnings", cmd.Flags().Lookup("capture-warnings")); err != nil {
				return err
			}
			if err := viper.BindPFlag("review.ai_review", cmd.Flags().Lookup("ai-review")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			source, err := readSource(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			orch, _, err := buildOrchestrator(cfg, logger)
			if err != nil {
				return err
			}

			opts := orchestrator.OptionsFromConfig(cfg.Review)
			opts.Language = viper.GetString("language")

			report, err := orch.Review(ctx, source, opts)
			if err != nil {
				if errors.Is(err, orchestrator.ErrEmptySource) {
					return fmt.Errorf("nothing to review: %w", err)
				}
				return err
			}

			format := viper.GetString("format")
			output := viper.GetString("output")
			if err := reporting.Write(format, output, report); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}

			if report.TotalFindings() > 0 {
				cmd.SilenceUsage = true
				cmd.SilenceErrors = true
				logger.Info("review finished with findings",
					zap.Int("findings", report.TotalFindings()))
				return errFindings
			}
			return nil
		},
	}

	reviewCmd.Flags().StringP("format", "f", reporting.FormatText, "report format (text, json, csv, sarif)")
	reviewCmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	reviewCmd.Flags().Bool("runtime-probe", false, "execute the snippet in a sandboxed interpreter")
	reviewCmd.Flags().Bool("quick-fix", false, "apply the missing-colon quick fix before the runtime probe")
	reviewCmd.Flags().Bool("warnings-as-errors", false, "run the probe with warnings promoted to errors")
	reviewCmd.Flags().Bool("capture-warnings", false, "collect runtime warnings from the probe")
	reviewCmd.Flags().Bool("ai-review", false, "request AI feedback on the snippet")
	reviewCmd.Flags().String("language", "", "force the snippet language (python), skipping auto-detection")

	return reviewCmd
}

// readSource loads the snippet from the named file, or from stdin when no
// argument is given.
func readSource(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", args[0], err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

// buildOrchestrator assembles the review engine, attaching the AI reviewer
// only when the stage is enabled. The returned cache is nil when AI review
// is off.
func buildOrchestrator(cfg *config.Config, logger *zap.Logger) (*orchestrator.Orchestrator, *aireview.Cache, error) {
	var (
		reviewer orchestrator.AIReviewer
		cache    *aireview.Cache
	)
	if cfg.Review.AIReview {
		client, err := aireview.NewClient(cfg.AI, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("configuring AI review: %w", err)
		}
		cache = aireview.NewCache(cfg.AI.CacheTTL)
		reviewer = aireview.NewReviewer(client, cache, logger)
	}
	return orchestrator.New(cfg, reviewer, logger), cache, nil
}
