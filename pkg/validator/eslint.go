// Package validator checks generated UI component source for syntax errors
// by running ESLint as a subprocess and parsing its JSON report.
package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Issue is one problem ESLint reported.
type Issue struct {
	Message string `json:"message"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Rule    string `json:"rule,omitempty"`
}

// Result is the outcome of validating one piece of source.
type Result struct {
	Valid  bool    `json:"valid"`
	Issues []Issue `json:"errors"`
}

// eslintMessage mirrors one entry of ESLint's JSON formatter output.
type eslintMessage struct {
	RuleID   *string `json:"ruleId"`
	Severity int     `json:"severity"`
	Fatal    bool    `json:"fatal"`
	Message  string  `json:"message"`
	Line     int     `json:"line"`
	Column   int     `json:"column"`
}

type eslintFileReport struct {
	FilePath string          `json:"filePath"`
	Messages []eslintMessage `json:"messages"`
}

// Validator runs ESLint against component source snippets.
type Validator struct {
	command   string
	configDir string
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a validator. command is the ESLint executable (e.g. "eslint"
// or "npx"); configDir must contain eslint.config.js.
func New(command, configDir string, timeout time.Duration, logger *slog.Logger) *Validator {
	return &Validator{
		command:   command,
		configDir: configDir,
		timeout:   timeout,
		logger:    logger.With("component", "validator"),
	}
}

// Validate lints the given component source. A non-empty Issues slice with
// Valid=false means the source has syntax errors the caller can feed back to
// the generating agent. Infrastructure failures (binary missing, timeout)
// come back as an error instead.
func (v *Validator) Validate(ctx context.Context, source string) (*Result, error) {
	dir, err := os.MkdirTemp("", "component-lint-")
	if err != nil {
		return nil, fmt.Errorf("failed to create lint workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "component.jsx")
	if err := os.WriteFile(file, []byte(source), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write lint input: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	args := []string{
		"--format", "json",
		"--no-ignore",
		"--config", filepath.Join(v.configDir, "eslint.config.js"),
		file,
	}
	cmd := exec.CommandContext(ctx, v.command, args...)
	output, err := cmd.Output()
	if err != nil {
		// Exit code 1 means lint findings; the JSON report is still on
		// stdout. Anything else is an infrastructure failure.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("eslint timed out after %s", v.timeout)
			}
			return nil, fmt.Errorf("eslint failed to run: %w", err)
		}
	}

	var reports []eslintFileReport
	if err := json.Unmarshal(output, &reports); err != nil {
		return nil, fmt.Errorf("failed to parse eslint output: %w", err)
	}

	result := &Result{Valid: true}
	for _, report := range reports {
		for _, m := range report.Messages {
			if m.Severity < 2 && !m.Fatal {
				continue
			}
			result.Valid = false
			issue := Issue{Message: m.Message, Line: m.Line, Column: m.Column}
			if m.RuleID != nil {
				issue.Rule = *m.RuleID
			}
			result.Issues = append(result.Issues, issue)
		}
	}
	if !result.Valid {
		v.logger.Debug("component failed validation", "issues", len(result.Issues))
	}
	return result, nil
}

// FormatIssues renders issues as feedback lines for the repair prompt.
func FormatIssues(issues []Issue) string {
	out := ""
	for _, i := range issues {
		out += fmt.Sprintf("line %d, col %d: %s", i.Line, i.Column, i.Message)
		if i.Rule != "" {
			out += fmt.Sprintf(" (%s)", i.Rule)
		}
		out += "\n"
	}
	return out
}
