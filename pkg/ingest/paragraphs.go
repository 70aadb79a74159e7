package ingest

import (
	"regexp"
	"strings"
)

// minParagraphChars filters out headers, page numbers and stray fragments.
const minParagraphChars = 50

// Paragraph is one indexable unit of an ingested document.
type Paragraph struct {
	Text           string
	Page           int
	ParagraphIndex int
	WordCount      int
}

var (
	blankRun      = regexp.MustCompile(`\n\s*\n+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// SplitParagraphs splits page text into paragraphs on blank-line runs,
// collapses internal whitespace, and keeps only chunks longer than fifty
// characters. ParagraphIndex is 0-based within the page.
func SplitParagraphs(pageText string, pageNumber int) []Paragraph {
	normalized := strings.ReplaceAll(pageText, "\r\n", "\n")
	chunks := blankRun.Split(normalized, -1)

	var paragraphs []Paragraph
	for _, chunk := range chunks {
		text := strings.TrimSpace(whitespaceRun.ReplaceAllString(chunk, " "))
		if len(text) <= minParagraphChars {
			continue
		}
		paragraphs = append(paragraphs, Paragraph{
			Text:           text,
			Page:           pageNumber,
			ParagraphIndex: len(paragraphs),
			WordCount:      len(strings.Fields(text)),
		})
	}
	return paragraphs
}

// SplitDocument runs SplitParagraphs over every page of a document.
func SplitDocument(pages []Page) []Paragraph {
	var all []Paragraph
	for _, p := range pages {
		all = append(all, SplitParagraphs(p.Text, p.Number)...)
	}
	return all
}
