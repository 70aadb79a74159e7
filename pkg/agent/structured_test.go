package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no tag", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFences(tt.in))
		})
	}
}

func TestExtractJSONCandidate(t *testing.T) {
	assert.Equal(t, `{"a":1}`, extractJSONCandidate(`Here you go: {"a":1} hope that helps`))
	assert.Equal(t, `[1,2,3]`, extractJSONCandidate(`the list is [1,2,3].`))
	assert.Equal(t, `{"a":{"b":2}}`, extractJSONCandidate(`{"a":{"b":2}}`))
	assert.Equal(t, `{"s":"has } brace"}`, extractJSONCandidate(`{"s":"has } brace"}`))
	assert.Empty(t, extractJSONCandidate("no json here"))
	assert.Empty(t, extractJSONCandidate(`{"unterminated":`))
}

func TestParseStructured(t *testing.T) {
	schema := mustCompileSchema(infoSchema)

	var info CourseInfo
	err := parseStructured("```json\n{\"title\":\"Go\",\"description\":\"Basics\"}\n```", schema, &info)
	require.NoError(t, err)
	assert.Equal(t, "Go", info.Title)
	assert.Equal(t, "Basics", info.Description)
}

func TestParseStructuredRejectsSchemaViolation(t *testing.T) {
	schema := mustCompileSchema(infoSchema)

	var info CourseInfo
	err := parseStructured(`{"title":"Go"}`, schema, &info)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema")
}

func TestParseStructuredRejectsProse(t *testing.T) {
	var info CourseInfo
	err := parseStructured("I cannot answer that.", nil, &info)
	require.Error(t, err)
}
