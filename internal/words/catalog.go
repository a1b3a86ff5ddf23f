package words

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"go.uber.org/zap"

	"github.com/wordrush/backend/internal/game"
)

var ErrNoWords = errors.New("no words available")

// Distribution is the target tier mix for a round board.
type Distribution map[Difficulty]int

func DefaultDistribution() Distribution {
	return Distribution{Easy: 3, Medium: 4, Hard: 2, Expert: 1}
}

// Catalog owns the deduplicated corpus and the per-room used-word tracking.
// A word handed to a room is never handed to it again, tracked both by ID
// and by normalized text, until ReleaseRoom drops the bookkeeping.
type Catalog struct {
	mu        sync.Mutex
	entries   []Entry
	byTier    map[Difficulty][]Entry
	usedIDs   map[string]map[string]struct{}
	usedTexts map[string]map[string]struct{}
	log       *zap.Logger
}

func NewCatalog(log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{
		byTier:    make(map[Difficulty][]Entry),
		usedIDs:   make(map[string]map[string]struct{}),
		usedTexts: make(map[string]map[string]struct{}),
		log:       log,
	}
}

// Load ingests the provider's corpus for the given pack. Entries are deduped
// case-insensitively by text, first occurrence wins. Already-drawn room state
// is unaffected by a reload.
func (c *Catalog) Load(ctx context.Context, provider Provider, pack string) error {
	entries, err := provider.Words(ctx, pack)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(entries))
	unique := make([]Entry, 0, len(entries))
	for _, e := range entries {
		key := game.NormalizeWord(e.Text)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, e)
	}
	if len(unique) == 0 {
		return ErrNoWords
	}

	byTier := make(map[Difficulty][]Entry)
	for _, e := range unique {
		byTier[e.Difficulty] = append(byTier[e.Difficulty], e)
	}

	c.mu.Lock()
	c.entries = unique
	c.byTier = byTier
	c.mu.Unlock()

	c.log.Info("word corpus loaded", zap.Int("words", len(unique)), zap.String("pack", pack))
	return nil
}

// DrawRoundSet assembles a board of count words for the room, honoring the
// tier distribution where supply allows. Short supply is not an error: the
// draw returns whatever is left and logs a warning. Every returned word is
// marked used for the room before returning.
func (c *Catalog) DrawRoundSet(roomCode string, count int, dist Distribution) []game.Word {
	if count <= 0 {
		count = game.DefaultWordsPerRound
	}
	if dist == nil {
		dist = DefaultDistribution()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	available := c.availableLocked(roomCode)
	if len(available) < count {
		c.log.Warn("word supply running low",
			zap.String("room", roomCode),
			zap.Int("available", len(available)),
			zap.Int("requested", count))
	}

	selected := make([]Entry, 0, count)
	selectedTexts := make(map[string]struct{}, count)
	availByTier := make(map[Difficulty][]Entry)
	for _, e := range available {
		availByTier[e.Difficulty] = append(availByTier[e.Difficulty], e)
	}

	for _, tier := range Tiers {
		pool := availByTier[tier]
		shuffle(pool)
		taken := 0
		for _, e := range pool {
			if len(selected) >= count || taken >= dist[tier] {
				break
			}
			key := game.NormalizeWord(e.Text)
			if _, dup := selectedTexts[key]; dup {
				continue
			}
			selected = append(selected, e)
			selectedTexts[key] = struct{}{}
			taken++
		}
	}

	// Top up from any tier when the targets alone did not fill the board.
	if len(selected) < count {
		rest := make([]Entry, 0, len(available))
		for _, e := range available {
			if _, dup := selectedTexts[game.NormalizeWord(e.Text)]; !dup {
				rest = append(rest, e)
			}
		}
		shuffle(rest)
		for _, e := range rest {
			if len(selected) >= count {
				break
			}
			selected = append(selected, e)
			selectedTexts[game.NormalizeWord(e.Text)] = struct{}{}
		}
	}

	// Tier must not correlate with board position.
	shuffle(selected)
	c.markUsedLocked(roomCode, selected)
	return toWords(selected)
}

// DrawReplenishment draws up to count more words for the room, uniformly,
// with no tier weighting. Returns short (possibly empty) when the room has
// exhausted the corpus.
func (c *Catalog) DrawReplenishment(roomCode string, count int) []game.Word {
	c.mu.Lock()
	defer c.mu.Unlock()

	available := c.availableLocked(roomCode)
	if len(available) == 0 {
		c.log.Warn("word supply exhausted", zap.String("room", roomCode))
		return nil
	}
	shuffle(available)
	if count > len(available) {
		count = len(available)
	}
	selected := available[:count]
	c.markUsedLocked(roomCode, selected)
	return toWords(selected)
}

// ReleaseRoom drops the room's used-word tracking. Called at game end so
// short-lived rooms do not pile up state.
func (c *Catalog) ReleaseRoom(roomCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.usedIDs, roomCode)
	delete(c.usedTexts, roomCode)
}

// Remaining is how many unused words the room still has to draw from.
func (c *Catalog) Remaining(roomCode string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.availableLocked(roomCode))
}

func (c *Catalog) availableLocked(roomCode string) []Entry {
	ids := c.usedIDs[roomCode]
	texts := c.usedTexts[roomCode]
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if _, used := ids[e.ID]; used {
			continue
		}
		if _, used := texts[game.NormalizeWord(e.Text)]; used {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (c *Catalog) markUsedLocked(roomCode string, selected []Entry) {
	ids := c.usedIDs[roomCode]
	if ids == nil {
		ids = make(map[string]struct{})
		c.usedIDs[roomCode] = ids
	}
	texts := c.usedTexts[roomCode]
	if texts == nil {
		texts = make(map[string]struct{})
		c.usedTexts[roomCode] = texts
	}
	for _, e := range selected {
		ids[e.ID] = struct{}{}
		texts[game.NormalizeWord(e.Text)] = struct{}{}
	}
}

func shuffle(entries []Entry) {
	rand.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})
}

func toWords(entries []Entry) []game.Word {
	out := make([]game.Word, len(entries))
	for i, e := range entries {
		out[i] = game.Word{ID: e.ID, Text: e.Text, Points: e.Points}
	}
	return out
}
