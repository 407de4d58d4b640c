package domain

import "strings"

// TimerDuration is the number of seconds a question stays open.
const TimerDuration = 15

// BotTarget is the roster size below which the lobby keeps adding bots.
const BotTarget = 3

// Bounds a host may configure for one game.
const (
	MaxRounds            = 10
	MaxQuestionsPerRound = 20
)

var Categories = []Category{
	{ID: "science", Name: "Science", Icon: "🧬", Color: "bg-green-500"},
	{ID: "history", Name: "History", Icon: "📜", Color: "bg-yellow-500"},
	{ID: "geography", Name: "Geography", Icon: "🌍", Color: "bg-blue-500"},
	{ID: "entertainment", Name: "Pop Culture", Icon: "🎬", Color: "bg-pink-500"},
	{ID: "sports", Name: "Sports", Icon: "⚽", Color: "bg-orange-500"},
	{ID: "tech", Name: "Tech", Icon: "💻", Color: "bg-purple-500"},
	{ID: "art", Name: "Art", Icon: "🎨", Color: "bg-red-500"},
	{ID: "literature", Name: "Literature", Icon: "📚", Color: "bg-indigo-500"},
	{ID: "music", Name: "Music", Icon: "🎵", Color: "bg-teal-500"},
	{ID: "food", Name: "Food", Icon: "🍔", Color: "bg-amber-500"},
}

var BotNames = []string{
	"QuizMaster99", "TriviaTitan", "BrainyBot", "FastFinger", "KnowItAll", "Guesser", "SmartyPants", "QuizWiz",
}

var Avatars = []string{
	"🐼", "🦊", "🦁", "🐯", "🐸", "🐙", "🦄", "🐲", "🤖", "👽", "👻", "🤡",
	"🤠", "🥳", "😎", "🤓", "😺", "🙈", "🐵", "🐶", "🐺", "🐴", "🦓", "🦒",
	"🐘", "🐭", "🐹", "🐰", "🦔", "🦇", "🐻", "🐨", "🦘", "🐔", "🐣", "🦉",
	"🦅", "🦆", "🦜", "🦩", "🦈", "🐬", "🐳", "🐟", "🐡", "🦀", "🦑", "🦋",
}

var AvatarColors = []string{
	"bg-slate-600", "bg-red-500", "bg-orange-500", "bg-amber-500", "bg-yellow-500",
	"bg-lime-500", "bg-green-500", "bg-emerald-500", "bg-teal-500", "bg-cyan-500",
	"bg-sky-500", "bg-blue-500", "bg-indigo-500", "bg-violet-500", "bg-purple-500",
	"bg-fuchsia-500", "bg-pink-500", "bg-rose-500",
}

// CategoryByID looks up a catalog entry.
func CategoryByID(id string) (Category, bool) {
	for _, c := range Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryForName resolves a catalog entry by display name, or builds an
// ad-hoc category for names the catalog does not know.
func CategoryForName(name string) Category {
	for _, c := range Categories {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return Category{
		ID:    strings.Join(strings.Fields(strings.ToLower(name)), ""),
		Name:  name,
		Icon:  "❓",
		Color: "bg-slate-500",
	}
}
