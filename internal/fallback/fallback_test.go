package fallback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqPicker returns the configured values in order, wrapping around.
type seqPicker struct {
	vals []int
	i    int
}

func (p *seqPicker) IntN(n int) int {
	v := p.vals[p.i%len(p.vals)] % n
	p.i++
	return v
}

func rendered(c Category) []string {
	var out []string
	for _, tmpl := range c.Templates {
		for _, e := range c.Emojis {
			out = append(out, strings.ReplaceAll(tmpl, emojiPlaceholder, e))
		}
	}
	return out
}

func TestMatch_PriorityOrder(t *testing.T) {
	r := NewResponder()

	cases := map[string]string{
		"hello there":            "greeting",
		"hi":                     "greeting",
		"Hi!":                    "greeting",
		"oh hi":                  "greeting",
		"yo, bro":                "greeting",
		"they said so":           "default",
		"which one":              "default",
		"Hello, are you hungry?": "greeting",
		"I want pizza":           "food",
		"love you bot":           "affection",
		"what is the time":       "question",
		"my laptop has a bug":    "technology",
		"ok":                     "default",
		"":                       "default",
	}
	for msg, want := range cases {
		assert.Equal(t, want, r.Match(msg).Name, "message %q", msg)
	}
}

func TestCategoryMatches_WholeWordKeywords(t *testing.T) {
	c := Category{Name: "greeting", Keywords: []string{" hi "}}

	assert.True(t, c.Matches("Hi!"))
	assert.True(t, c.Matches("well... hi, friend"))
	assert.False(t, c.Matches("this"))
	assert.False(t, c.Matches("chill"))
}

func TestReply_GreetingComesFromGreetingPool(t *testing.T) {
	r := NewResponder()
	greeting := DefaultCategories()[0]
	require.Equal(t, "greeting", greeting.Name)

	for i := 0; i < 20; i++ {
		got := r.Reply("hello")
		assert.NotEmpty(t, got)
		assert.Contains(t, rendered(greeting), got)
	}
}

func TestReply_UsesPickerForTemplateAndEmoji(t *testing.T) {
	cats := []Category{{
		Name:      "only",
		Keywords:  []string{"x"},
		Templates: []string{"first {emoji}", "second {emoji}"},
		Emojis:    []string{"🙂", "🙃"},
	}}
	r := NewResponderWith(cats, &seqPicker{vals: []int{1, 0}})

	assert.Equal(t, "second 🙂", r.Reply("x"))
}

func TestNewResponderWith_AppendsDefaultRow(t *testing.T) {
	r := NewResponderWith([]Category{{Name: "food", Keywords: []string{"pizza"}, Templates: []string{"yum"}}}, &seqPicker{vals: []int{0}})

	assert.Equal(t, "default", r.Match("nothing to see").Name)
	assert.NotEmpty(t, r.Reply("nothing to see"))
}

func TestDecorate_AppendsEmojiOnlyWhenMissing(t *testing.T) {
	r := NewResponderWith(DefaultCategories(), &seqPicker{vals: []int{0}})

	assert.Equal(t, "Sure thing 🍕", r.Decorate("Sure thing", "pizza tonight"))
	assert.Equal(t, "Already fun 😂", r.Decorate("Already fun 😂", "pizza tonight"))
}
