// Package doctext reads plain text out of submission documents. PDF is
// parsed properly; txt is read as-is; rtf and legacy doc are best-effort
// salvage because intake must not reject a readable form over its container
// format.
package doctext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/meridianbio/labintake/internal/core/domain"
)

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".rtf":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read document: %w", err)
		}
		return strings.TrimSpace(stripRTF(string(raw))), nil
	case ".txt", ".docx", ".doc":
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read document: %w", err)
		}
		if utf8.Valid(raw) {
			return strings.TrimSpace(string(raw)), nil
		}
		return strings.TrimSpace(salvageText(raw)), nil
	default:
		return "", domain.WrapError(domain.ErrValidation, "extract text",
			fmt.Errorf("unsupported document type %q", filepath.Ext(path)))
	}
}

// stripRTF drops control words and group braces, keeping the document's
// visible text. \par becomes a newline so paragraph structure survives for
// the chunker.
func stripRTF(input string) string {
	var b strings.Builder
	runes := []rune(input)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '{', '}':
		case '\\':
			j := i + 1
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '-') {
				j++
			}
			word := string(runes[i+1 : j])
			if word == "par" || word == "line" {
				b.WriteRune('\n')
			}
			// A control word eats one following space as its delimiter.
			if j < len(runes) && runes[j] == ' ' {
				j++
			}
			i = j - 1
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// salvageText pulls printable runs out of a binary container. Short runs are
// format noise, not content.
func salvageText(raw []byte) string {
	const minRun = 4
	var b strings.Builder
	var run []byte
	flush := func() {
		if len(run) >= minRun {
			b.Write(run)
			b.WriteByte('\n')
		}
		run = run[:0]
	}
	for _, c := range raw {
		if c >= 0x20 && c < 0x7f || c == '\t' {
			run = append(run, c)
			continue
		}
		flush()
	}
	flush()
	return b.String()
}
