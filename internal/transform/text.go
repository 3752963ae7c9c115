package transform

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MaxTitleLength is the longest title Shopify accepts, in runes.
	MaxTitleLength = 255

	// MaxHandleLength is the longest handle written to the CSV export.
	MaxHandleLength = 255

	// UntitledProduct replaces an empty title.
	UntitledProduct = "Untitled Product"
)

// CleanTitle normalizes s to NFC, collapses whitespace and truncates it to
// MaxTitleLength runes, marking the cut with "...".
func CleanTitle(s string) string {
	s = strings.Join(strings.Fields(norm.NFC.String(s)), " ")
	if s == "" {
		return UntitledProduct
	}
	if utf8.RuneCountInString(s) <= MaxTitleLength {
		return s
	}
	r := []rune(s)
	return string(r[:MaxTitleLength-3]) + "..."
}

// cleanText turns newlines into spaces and trims s.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// foldASCII strips combining marks after decomposition, so "é" becomes "e".
func foldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Handle derives a URL handle from a title: lower-case, accents folded,
// spaces, slashes and ampersands turned into dashes, dash runs collapsed.
func Handle(title string) string {
	s := strings.ToLower(foldASCII(cleanText(title)))
	s = strings.NewReplacer(" ", "-", "/", "-", "&", "-").Replace(s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	if utf8.RuneCountInString(s) > MaxHandleLength {
		s = string([]rune(s)[:MaxHandleLength])
	}
	return s
}

// categorySegments splits a "A/B/C" category path into trimmed, non-empty parts.
func categorySegments(path string) []string {
	var out []string
	for _, seg := range strings.Split(path, "/") {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
