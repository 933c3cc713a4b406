package fallback

// extraExpressive lists glyphs that count as "already expressive" even though
// no category hands them out.
var extraExpressive = []rune{'😂', '🤣', '😅', '😎', '🔥', '✨', '👍', '🙏', '💯', '🎉'}

var defaultCategory = Category{
	Name: "default",
	Templates: []string{
		"Interesting! Tell me more {emoji}",
		"Haha, you always keep things lively {emoji}",
		"I'm all ears, go on {emoji}",
		"That's one way to put it {emoji}",
		"Noted! My brain is buffering a witty reply {emoji}",
	},
	Emojis: []string{"😄", "😉", "🙂", "🤔", "😎"},
}

// DefaultCategories is the canned-response table in priority order.
func DefaultCategories() []Category {
	return []Category{
		{
			Name:     "greeting",
			Keywords: []string{"hello", " hi ", " hey ", " hii ", "namaste", "good morning", "good night", " yo "},
			Templates: []string{
				"Hey there! What's up? {emoji}",
				"Hello hello! Missed me? {emoji}",
				"Namaste! How's life treating you? {emoji}",
				"Hi! Ready for some chaos? {emoji}",
			},
			Emojis: []string{"👋", "😊", "🙌", "😃"},
		},
		{
			Name:     "food",
			Keywords: []string{"food", " eat ", "eating", "hungry", "pizza", "biryani", "khana", "dinner", "lunch", "breakfast", "chai", "coffee"},
			Templates: []string{
				"Food talk? Now I'm hungry too {emoji}",
				"Save me a plate, I'm on my way {emoji}",
				"Calories don't count in group chats {emoji}",
			},
			Emojis: []string{"🍕", "🍔", "🍜", "☕", "🤤"},
		},
		{
			Name:     "affection",
			Keywords: []string{"love", "miss you", "cute", "pyaar", "crush", "heart", "sweet"},
			Templates: []string{
				"Aww, stop it, I'm blushing {emoji}",
				"That's adorable, not gonna lie {emoji}",
				"Love is in the air, and so is my Wi-Fi {emoji}",
			},
			Emojis: []string{"❤️", "🥰", "😍", "💕", "😘"},
		},
		{
			Name:     "question",
			Keywords: []string{"?", "what", "why", "how", "when", "where", "who", "kya", "kaise", "kyun"},
			Templates: []string{
				"Great question! Let me pretend I know the answer {emoji}",
				"Hmm, that's a deep one {emoji}",
				"Ask me again after my coffee {emoji}",
				"The answer is 42. Probably {emoji}",
			},
			Emojis: []string{"🤔", "🧐", "💭", "❓"},
		},
		{
			Name:     "technology",
			Keywords: []string{"code", "computer", "phone", " ai ", "bot", "tech", " app ", " apps ", "internet", "laptop", "bug"},
			Templates: []string{
				"Have you tried turning it off and on again? {emoji}",
				"Beep boop, tech support has entered the chat {emoji}",
				"It works on my machine {emoji}",
			},
			Emojis: []string{"🤖", "💻", "📱", "⚡"},
		},
		defaultCategory,
	}
}
