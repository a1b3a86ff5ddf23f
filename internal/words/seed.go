package words

import (
	"context"
	"fmt"
)

type seedWord struct {
	text   string
	points int
}

// Builtin corpus, used when no database is configured.
var seedCorpus = map[Difficulty][]seedWord{
	Easy: {
		{"dog", 5}, {"cat", 5}, {"sun", 5}, {"sea", 5}, {"eye", 5},
		{"ice", 5}, {"run", 5}, {"walk", 5}, {"food", 5}, {"fast", 5},
		{"slow", 5}, {"tall", 5}, {"fire", 6}, {"water", 6}, {"tree", 6},
		{"book", 6}, {"phone", 6}, {"happy", 6}, {"angry", 6}, {"jump", 6},
		{"sing", 6}, {"cook", 6}, {"rain", 6}, {"snow", 6}, {"chair", 7},
		{"table", 7}, {"music", 7}, {"dance", 7}, {"sleep", 7}, {"dream", 8},
		{"smile", 8}, {"laugh", 8}, {"tomorrow", 8}, {"birthday", 8},
		{"ice cream", 9}, {"write", 10},
	},
	Medium: {
		{"tokyo", 10}, {"paris", 10}, {"pizza", 10}, {"volcano", 11},
		{"guitar", 11}, {"piano", 11}, {"soccer", 12}, {"tennis", 12},
		{"jungle", 12}, {"desert", 12}, {"castle", 13}, {"dragon", 13},
		{"pyramid", 13}, {"wizard", 14}, {"zombie", 14}, {"vampire", 14},
		{"ninja", 15}, {"pirate", 15}, {"compass", 15}, {"submarine", 15},
		{"olympics", 16}, {"carnival", 16}, {"lighthouse", 16},
		{"festival", 17}, {"parachute", 17}, {"avalanche", 18},
		{"tsunami", 18}, {"earthquake", 19}, {"hurricane", 19},
		{"kaleidoscope", 20},
	},
	Hard: {
		{"babylon", 21}, {"jack frost", 22}, {"pneumonia", 22},
		{"entrepreneur", 23}, {"metamorphosis", 23}, {"photosynthesis", 24},
		{"ventriloquist", 25}, {"hieroglyphics", 26}, {"bureaucracy", 27},
		{"onomatopoeia", 28}, {"serendipity", 29}, {"phenomenon", 30},
		{"surveillance", 31}, {"conscientious", 33}, {"worcestershire", 35},
	},
	Expert: {
		{"limerence", 38}, {"zeitgeist", 40}, {"ephemeral", 42},
		{"sonder", 45}, {"petrichor", 48}, {"apricity", 50},
		{"defenestration", 52}, {"sesquipedalian", 55}, {"ultracrepidarian", 60},
	},
}

// BuiltinProvider serves the compiled-in corpus. Pack names are ignored:
// there is only the one pack.
type BuiltinProvider struct{}

func (BuiltinProvider) Words(_ context.Context, _ string) ([]Entry, error) {
	var out []Entry
	for _, tier := range Tiers {
		for i, w := range seedCorpus[tier] {
			out = append(out, Entry{
				ID:         fmt.Sprintf("seed-%s-%03d", tier, i),
				Text:       w.text,
				Points:     w.points,
				Difficulty: tier,
			})
		}
	}
	return out, nil
}
