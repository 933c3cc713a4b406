package fallback

import (
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"
)

const emojiPlaceholder = "{emoji}"

// Category is one row of the canned-response table. A message matches when
// any keyword is a substring of its lowercased text, or of that text with
// punctuation blanked and a space on each side. Keywords written as " hi "
// therefore only match whole words. A category with no keywords matches
// everything.
type Category struct {
	Name      string
	Keywords  []string
	Templates []string
	Emojis    []string
}

func (c Category) Matches(msg string) bool {
	lowered := strings.ToLower(msg)
	return c.matches(lowered, padWords(lowered))
}

func (c Category) matches(lowered, padded string) bool {
	if len(c.Keywords) == 0 {
		return true
	}
	for _, kw := range c.Keywords {
		if strings.Contains(lowered, kw) || strings.Contains(padded, kw) {
			return true
		}
	}
	return false
}

func padWords(lowered string) string {
	blanked := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, lowered)
	return " " + blanked + " "
}

// Picker chooses an index in [0, n).
type Picker interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Responder produces canned replies when no model is available. It never
// fails and never returns an empty string.
type Responder struct {
	categories []Category
	expressive map[rune]struct{}
	pick       Picker
}

func NewResponder() *Responder {
	return NewResponderWith(DefaultCategories(), globalRand{})
}

// NewResponderWith builds a responder over categories evaluated in order.
// The last category should match everything; if none does, a plain default
// row is appended.
func NewResponderWith(categories []Category, pick Picker) *Responder {
	cats := make([]Category, len(categories))
	copy(cats, categories)
	if len(cats) == 0 || len(cats[len(cats)-1].Keywords) != 0 {
		cats = append(cats, defaultCategory)
	}

	expressive := make(map[rune]struct{})
	for _, c := range cats {
		for _, e := range c.Emojis {
			if r, _ := utf8.DecodeRuneInString(e); r != utf8.RuneError {
				expressive[r] = struct{}{}
			}
		}
	}
	for _, r := range extraExpressive {
		expressive[r] = struct{}{}
	}
	return &Responder{categories: cats, expressive: expressive, pick: pick}
}

// Match returns the first category matching msg.
func (r *Responder) Match(msg string) Category {
	lowered := strings.ToLower(msg)
	padded := padWords(lowered)
	for _, c := range r.categories {
		if c.matches(lowered, padded) {
			return c
		}
	}
	return r.categories[len(r.categories)-1]
}

func (r *Responder) Reply(msg string) string {
	c := r.Match(msg)
	if len(c.Templates) == 0 {
		c = defaultCategory
	}
	tmpl := c.Templates[r.pick.IntN(len(c.Templates))]
	return strings.ReplaceAll(tmpl, emojiPlaceholder, r.emojiFor(c))
}

// Decorate appends one emoji chosen for msg when reply has none.
func (r *Responder) Decorate(reply, msg string) string {
	if r.HasExpressive(reply) {
		return reply
	}
	return strings.TrimRight(reply, " ") + " " + r.emojiFor(r.Match(msg))
}

func (r *Responder) HasExpressive(s string) bool {
	for _, ch := range s {
		if _, ok := r.expressive[ch]; ok {
			return true
		}
	}
	return false
}

func (r *Responder) emojiFor(c Category) string {
	if len(c.Emojis) == 0 {
		c = defaultCategory
	}
	return c.Emojis[r.pick.IntN(len(c.Emojis))]
}
