package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatIssues(t *testing.T) {
	issues := []Issue{
		{Message: "'foo' is not defined", Line: 2, Column: 7, Rule: "no-undef"},
		{Message: "Parsing error: Unexpected token", Line: 1, Column: 1},
	}
	out := FormatIssues(issues)
	assert.Contains(t, out, "line 2, col 7: 'foo' is not defined (no-undef)")
	assert.Contains(t, out, "line 1, col 1: Parsing error: Unexpected token")
	assert.NotContains(t, out, "()", "missing rule id must not render empty parens")
}

func TestFormatIssuesEmpty(t *testing.T) {
	assert.Empty(t, FormatIssues(nil))
}
