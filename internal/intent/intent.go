package intent

import (
	"strings"
	"unicode"
)

// DefaultPrompt is used when nothing is left of the message after the
// trigger words and mentions are stripped.
const DefaultPrompt = "a beautiful scenic landscape with mountains and a sunset"

const qualitySuffix = ", high quality, detailed, 4k, professional"

var imageKeywords = map[string]struct{}{
	"generate":   {},
	"create":     {},
	"make":       {},
	"draw":       {},
	"image":      {},
	"picture":    {},
	"photo":      {},
	"paint":      {},
	"sketch":     {},
	"render":     {},
	"illustrate": {},
	"pic":        {},
	"banao":      {},
	"banado":     {},
	"tasveer":    {},
	"chitra":     {},
	"बनाओ":       {},
	"तस्वीर":     {},
	"चित्र":      {},
	"फोटो":       {},
}

// IsImageRequest reports whether any whitespace-separated word of msg is an
// image trigger keyword.
func IsImageRequest(msg string) bool {
	for _, tok := range strings.Fields(msg) {
		if isKeyword(tok) {
			return true
		}
	}
	return false
}

// CleanPrompt drops trigger keywords and @mentions from msg. It returns
// DefaultPrompt when nothing remains.
func CleanPrompt(msg string) string {
	kept := make([]string, 0, 8)
	for _, tok := range strings.Fields(msg) {
		if strings.HasPrefix(tok, "@") || isKeyword(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		return DefaultPrompt
	}
	return strings.Join(kept, " ")
}

// EnhancePrompt appends the fixed quality suffix sent to image models.
func EnhancePrompt(prompt string) string {
	return prompt + qualitySuffix
}

func isKeyword(tok string) bool {
	tok = strings.ToLower(strings.TrimFunc(tok, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}))
	_, ok := imageKeywords[tok]
	return ok
}
