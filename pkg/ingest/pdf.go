// Package ingest turns uploaded PDF documents into indexable paragraphs.
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Page is the extracted text of one PDF page, 1-based.
type Page struct {
	Number int
	Text   string
}

// PageCount returns the number of pages in the PDF.
func PageCount(data []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF: %w", err)
	}
	return n, nil
}

// ExtractPages returns the text of every page. Pages whose content streams
// yield no text come back with an empty Text and are kept so page numbering
// stays stable.
func ExtractPages(data []byte) ([]Page, error) {
	conf := model.NewDefaultConfiguration()
	rs := bytes.NewReader(data)

	ctx, err := api.ReadValidateAndOptimize(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}

	pages := make([]Page, 0, ctx.PageCount)
	for i := 1; i <= ctx.PageCount; i++ {
		r, err := pdfcpu.ExtractPageContent(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d: %w", i, err)
		}
		var content []byte
		if r != nil {
			content, err = io.ReadAll(r)
			if err != nil {
				return nil, fmt.Errorf("failed to read page %d content: %w", i, err)
			}
		}
		pages = append(pages, Page{Number: i, Text: decodeContentText(content)})
	}
	return pages, nil
}

// decodeContentText pulls the literal strings shown by Tj/TJ/' operators out
// of a decoded page content stream. Glyph-encoded (hex) strings are skipped;
// the showing operators carry most real-world document text as literals.
func decodeContentText(content []byte) string {
	var b strings.Builder
	i := 0
	for i < len(content) {
		switch content[i] {
		case '(':
			text, next := readLiteralString(content, i)
			rest := content[next:]
			if startsWithShowOp(rest) {
				b.WriteString(text)
				b.WriteByte(' ')
			}
			i = next
		case 'T':
			// TD/Td/T* move the text cursor; treat them as line breaks so
			// paragraph detection sees the layout.
			if i+1 < len(content) && (content[i+1] == 'd' || content[i+1] == 'D' || content[i+1] == '*') {
				b.WriteByte('\n')
			}
			i++
		default:
			i++
		}
	}
	return b.String()
}

// readLiteralString parses a PDF literal string starting at the '(' at
// position start and returns the unescaped text and the index just past the
// closing ')'.
func readLiteralString(content []byte, start int) (string, int) {
	var b strings.Builder
	depth := 0
	i := start
	for i < len(content) {
		c := content[i]
		switch c {
		case '\\':
			if i+1 < len(content) {
				switch content[i+1] {
				case 'n':
					b.WriteByte('\n')
				case 't':
					b.WriteByte(' ')
				case '(', ')', '\\':
					b.WriteByte(content[i+1])
				}
				i += 2
				continue
			}
			i++
		case '(':
			if depth > 0 {
				b.WriteByte(c)
			}
			depth++
			i++
		case ')':
			depth--
			if depth == 0 {
				return b.String(), i + 1
			}
			b.WriteByte(c)
			i++
		default:
			if depth > 0 {
				b.WriteByte(c)
			}
			i++
		}
	}
	return b.String(), i
}

// startsWithShowOp reports whether the bytes after a string (skipping
// whitespace and array syntax) begin with a text-showing operator.
func startsWithShowOp(rest []byte) bool {
	j := 0
	for j < len(rest) {
		c := rest[j]
		if c == ' ' || c == '\n' || c == '\r' || c == '\t' || c == ']' || c == '-' || c >= '0' && c <= '9' || c == '.' {
			j++
			continue
		}
		break
	}
	if j >= len(rest) {
		return false
	}
	switch rest[j] {
	case 'T':
		return j+1 < len(rest) && (rest[j+1] == 'j' || rest[j+1] == 'J')
	case '\'', '"':
		return true
	}
	return false
}
