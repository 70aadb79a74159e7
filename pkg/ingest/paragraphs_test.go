package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitParagraphs(t *testing.T) {
	long1 := strings.Repeat("alpha ", 12)  // > 50 chars
	long2 := strings.Repeat("beta ", 12)

	text := long1 + "\n\n" + "short header" + "\n\n\n" + long2
	paragraphs := SplitParagraphs(text, 3)

	require.Len(t, paragraphs, 2, "short fragments must be dropped")
	assert.Equal(t, strings.TrimSpace(long1), paragraphs[0].Text)
	assert.Equal(t, strings.TrimSpace(long2), paragraphs[1].Text)
	assert.Equal(t, 3, paragraphs[0].Page)
	assert.Equal(t, 0, paragraphs[0].ParagraphIndex)
	assert.Equal(t, 1, paragraphs[1].ParagraphIndex)
	assert.Equal(t, 12, paragraphs[0].WordCount)
}

func TestSplitParagraphsNormalizesWhitespace(t *testing.T) {
	text := "line one with enough text to pass the minimum\r\nlength check\t\tand   extra   spaces"
	paragraphs := SplitParagraphs(text, 1)

	require.Len(t, paragraphs, 1)
	assert.NotContains(t, paragraphs[0].Text, "\r")
	assert.NotContains(t, paragraphs[0].Text, "\n")
	assert.NotContains(t, paragraphs[0].Text, "  ", "whitespace runs must collapse")
}

func TestSplitParagraphsBoundary(t *testing.T) {
	exactly50 := strings.Repeat("x", 50)
	assert.Empty(t, SplitParagraphs(exactly50, 1), "50 chars is not enough")

	over50 := strings.Repeat("x", 51)
	assert.Len(t, SplitParagraphs(over50, 1), 1)
}

func TestSplitDocument(t *testing.T) {
	long := strings.Repeat("word ", 15)
	pages := []Page{
		{Number: 1, Text: long},
		{Number: 2, Text: "tiny"},
		{Number: 3, Text: long + "\n\n" + long},
	}
	paragraphs := SplitDocument(pages)

	require.Len(t, paragraphs, 3)
	assert.Equal(t, 1, paragraphs[0].Page)
	assert.Equal(t, 3, paragraphs[1].Page)
	assert.Equal(t, 0, paragraphs[1].ParagraphIndex)
	assert.Equal(t, 1, paragraphs[2].ParagraphIndex)
}
