package schemas

import "context"

// -- Core Service Interfaces --

// Analyzer is the contract every tool adapter satisfies. Adapters are
// stateless and independent: they may run in any order or concurrently, and
// none depends on another's output.
//
// Analyze never returns an error. Collaborator-level failures (tool missing,
// timeout, unparseable output) are folded into the ToolOutcome so one tool's
// malfunction cannot abort the rest of the review.
type Analyzer interface {
	// Name is the stable tool key used in ReviewReport.Tools and Order.
	Name() string
	// Category is the taxonomy bucket this adapter's findings belong to.
	Category() Category
	Analyze(ctx context.Context, source string) ToolOutcome
}

// CompletionClient abstracts the AI completion endpoint so the review
// pipeline can be tested without network access.
type CompletionClient interface {
	// Complete sends the system and user prompts and returns free-text
	// feedback. Implementations own their retry policy.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
