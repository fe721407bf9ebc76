// Package orchestrator drives a full review: it fans the snippet out to
// every registered analyzer, runs the runtime probe pipeline, and merges the
// results into a single report.
package orchestrator

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/revu-dev/revu/api/schemas"
	"github.com/revu-dev/revu/internal/adapters"
	"github.com/revu-dev/revu/internal/config"
	"github.com/revu-dev/revu/internal/probe"
	"github.com/revu-dev/revu/internal/quickfix"
	"github.com/revu-dev/revu/internal/toolexec"
)

var (
	// ErrEmptySource is returned for empty or whitespace-only input,
	// before any tool is invoked.
	ErrEmptySource = errors.New("source is empty")
)

// LanguagePython is the only language the tool pipeline handles. Other
// inputs still get the AI review stage when enabled.
const LanguagePython = "python"

// AIReviewer is the optional final stage. Implemented by aireview.Reviewer.
type AIReviewer interface {
	Review(ctx context.Context, source, language string) *schemas.AIReviewResult
}

// Options selects the stages of a single review. The zero value runs the
// static tools only.
type Options struct {
	RuntimeProbe     bool
	QuickFix         bool
	WarningsAsErrors bool
	CaptureWarnings  bool
	AIReview         bool
	// Language forces the pipeline language, bypassing detection. Empty
	// means auto-detect.
	Language string
}

// OptionsFromConfig translates the review section of the configuration.
func OptionsFromConfig(rc config.ReviewConfig) Options {
	return Options{
		RuntimeProbe:     rc.RuntimeProbe,
		QuickFix:         rc.QuickFix,
		WarningsAsErrors: rc.WarningsAsErrors,
		CaptureWarnings:  rc.CaptureWarnings,
		AIReview:         rc.AIReview,
	}
}

// Orchestrator owns the analyzer set and the probe and runs reviews over
// them. It is safe for concurrent use.
type Orchestrator struct {
	analyzers   []schemas.Analyzer
	prober      *probe.Prober
	reviewer    AIReviewer
	concurrency int
	probeOpts   probe.Options
	logger      *zap.Logger
}

// New builds an Orchestrator from configuration. The AI reviewer may be nil,
// in which case the AI stage is skipped regardless of options.
func New(cfg *config.Config, reviewer AIReviewer, logger *zap.Logger) *Orchestrator {
	runner := toolexec.New(logger)
	analyzers := adapters.Registry(runner, cfg.Tools, logger)

	var compiler probe.Compiler
	for _, a := range analyzers {
		if c, ok := a.(*adapters.CompileAdapter); ok {
			compiler = c
			break
		}
	}

	concurrency := cfg.Review.AdapterConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Orchestrator{
		analyzers:   analyzers,
		prober:      probe.New(runner, compiler, cfg.Tools, logger),
		reviewer:    reviewer,
		concurrency: concurrency,
		probeOpts: probe.Options{
			Timeout: cfg.Review.ProbeTimeout,
		},
		logger: logger.Named("orchestrator"),
	}
}

// Review runs the selected stages over the snippet and returns the merged
// report. Tool failures, probe failures, and AI failures are all folded into
// the report; Review only returns an error for unusable input.
func (o *Orchestrator) Review(ctx context.Context, source string, opts Options) (*schemas.ReviewReport, error) {
	if strings.TrimSpace(source) == "" {
		return nil, ErrEmptySource
	}

	start := time.Now()
	language := opts.Language
	if language == "" {
		language = DetectLanguage(source)
	}

	report := &schemas.ReviewReport{
		ID:        uuid.NewString(),
		CreatedAt: start.UTC(),
		Language:  language,
		Tools:     make(map[string]schemas.ToolOutcome),
	}

	if language == LanguagePython {
		o.runTools(ctx, source, opts, report)
	} else {
		report.Note = "tool pipeline skipped: input does not look like Python (pass language=python to force)"
		o.logger.Info("skipping tool pipeline for non-Python input",
			zap.String("language", language))
	}

	if opts.AIReview && o.reviewer != nil {
		report.AIReview = o.reviewer.Review(ctx, source, language)
	}

	o.logger.Info("review complete",
		zap.String("review_id", report.ID),
		zap.Int("findings", report.TotalFindings()),
		zap.Duration("duration", time.Since(start)))
	return report, nil
}

// runTools fans the snippet out to every analyzer with bounded concurrency,
// then runs the runtime probe pipeline. Each analyzer writes into its own
// slot, so the report order is the fixed registry order no matter which tool
// finishes first.
func (o *Orchestrator) runTools(ctx context.Context, source string, opts Options, report *schemas.ReviewReport) {
	outcomes := make([]schemas.ToolOutcome, len(o.analyzers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, analyzer := range o.analyzers {
		g.Go(func() error {
			outcomes[i] = analyzer.Analyze(gctx, source)
			return nil
		})
	}
	// Analyzers never return errors; failures become findings or notes.
	_ = g.Wait()

	for i, analyzer := range o.analyzers {
		report.Order = append(report.Order, analyzer.Name())
		report.Tools[analyzer.Name()] = outcomes[i]
	}

	probeOpts := o.probeOpts
	probeOpts.Enabled = opts.RuntimeProbe
	probeOpts.AllowQuickFix = opts.QuickFix
	probeOpts.WarningsAsErrors = opts.WarningsAsErrors
	probeOpts.CaptureWarnings = opts.CaptureWarnings

	outcome := o.prober.Probe(ctx, source, probeOpts)
	report.Order = append(report.Order, probe.ToolName)
	report.Tools[probe.ToolName] = probe.Finding(outcome.Result)
	report.Runtime = outcome.Result
	report.QuickFix = outcome.QuickFix
	if report.QuickFix == nil && opts.QuickFix {
		report.QuickFix = quickfix.Result(source)
	}
}

// Line shapes that mark a snippet as Python. Block keywords must end in a
// colon so brace-language code does not match; assignments require a bare
// identifier target and reject := and trailing ; or {.
var (
	pyBlockRe  = regexp.MustCompile(`^(?:if|elif|else|for|while|try|except|finally|with|def|class)\b.*:\s*(?:#.*)?$`)
	pyAssignRe = regexp.MustCompile(`^[A-Za-z_][\w.\[\]]*\s*(?:[-+*/%@&|^]|//|\*\*|>>|<<)?=\s*[^=\s]`)
)

var pyPrefixes = []string{
	"import ", "from ", "def ", "class ", "print(",
	"elif ", "except", "lambda ", "raise ", "assert ",
	"async ", "await ", "global ", "nonlocal ", "del ",
	"pass", "yield", "@",
}

// DetectLanguage makes a shallow guess at the snippet's language. Python is
// recognized by its statement shapes, including bare assignments like
// "x = 1/0"; everything else is reported as plain text.
func DetectLanguage(source string) string {
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		for _, p := range pyPrefixes {
			if strings.HasPrefix(trimmed, p) {
				return LanguagePython
			}
		}
		if pyBlockRe.MatchString(trimmed) {
			return LanguagePython
		}
		if pyAssignRe.MatchString(trimmed) && !strings.Contains(trimmed, ":=") &&
			!strings.HasSuffix(trimmed, ";") && !strings.HasSuffix(trimmed, "{") {
			return LanguagePython
		}
	}
	return "text"
}
