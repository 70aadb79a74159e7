package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nexora-ai/nexora/pkg/validator"
)

// Review iteration budgets. Chapter components get more rounds than
// practice-question snippets because a broken chapter costs the whole page.
const (
	ExplainerReviewIterations = 5
	TesterReviewIterations    = 2
)

// CodeValidator is the syntax checking dependency, satisfied by
// validator.Validator.
type CodeValidator interface {
	Validate(ctx context.Context, source string) (*validator.Result, error)
}

// ErrUnrepairable reports that generated code stayed invalid through every
// review iteration.
var ErrUnrepairable = fmt.Errorf("generated code failed validation after all review iterations")

// ReviewCode runs the generate-validate-repair loop: generate is called with
// empty feedback first, then with the validator's findings until the code
// passes or maxIterations generations have been spent. On exhaustion the
// last candidate is returned alongside ErrUnrepairable so callers can fall
// back or drop.
func ReviewCode(ctx context.Context, check CodeValidator, maxIterations int, logger *slog.Logger,
	generate func(ctx context.Context, feedback string) (string, error)) (string, error) {

	feedback := ""
	var code string
	for i := 0; i < maxIterations; i++ {
		var err error
		code, err = generate(ctx, feedback)
		if err != nil {
			return "", err
		}

		result, err := check.Validate(ctx, code)
		if err != nil {
			return "", fmt.Errorf("validation failed to run: %w", err)
		}
		if result.Valid {
			if i > 0 {
				logger.Info("code repaired", "iterations", i+1)
			}
			return code, nil
		}
		feedback = validator.FormatIssues(result.Issues)
		logger.Warn("generated code invalid", "iteration", i+1, "issues", len(result.Issues))
	}
	return code, ErrUnrepairable
}
