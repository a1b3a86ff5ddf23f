package words

import "context"

type Difficulty string

const (
	Easy   Difficulty = "EASY"
	Medium Difficulty = "MEDIUM"
	Hard   Difficulty = "HARD"
	Expert Difficulty = "EXPERT"
)

// Tiers in draw order.
var Tiers = []Difficulty{Easy, Medium, Hard, Expert}

// Entry is one corpus word as supplied by a provider. IDs are stable and
// unique; texts may repeat across IDs, the catalog dedups them on load.
type Entry struct {
	ID         string
	Text       string
	Points     int
	Difficulty Difficulty
}

// Provider supplies the corpus, optionally scoped to a named pack. An empty
// pack name means everything active.
type Provider interface {
	Words(ctx context.Context, pack string) ([]Entry, error)
}
