package game

import "time"

// TeamForRound is a pure function of the round number: odd rounds belong to
// the starting team, even rounds to the other. Scores never influence turn
// order.
func TeamForRound(roundNumber int, startingTeam TeamID) TeamID {
	if roundNumber%2 == 1 {
		return startingTeam
	}
	return startingTeam.Opponent()
}

// StartRound opens the next round for the room with the given board of
// words. The describer is the cursor position modulo team size, so a team
// that shrank mid-rotation still yields a valid describer. Timestamps are
// stamped here, at actual start, not when the round was scheduled.
func StartRound(room *Room, words []Word) (*Round, error) {
	if room.CurrentRound != nil {
		return nil, ErrRoundInProgress
	}
	number := len(room.RoundHistory) + 1
	if number > room.Settings.TotalRounds() {
		return nil, ErrGameCompleted
	}

	teamID := TeamForRound(number, room.Settings.StartingTeam)
	team := room.Teams[teamID]
	if len(team.Players) == 0 {
		return nil, ErrNoDescriber
	}
	describer := team.Players[team.DescriberIndex%len(team.Players)]

	board := make([]Word, len(words))
	for i, w := range words {
		board[i] = Word{ID: w.ID, Text: w.Text, Points: w.Points}
	}

	now := time.Now()
	round := &Round{
		Number:        number,
		TeamID:        teamID,
		DescriberID:   describer.ID,
		DescriberName: describer.Name,
		Words:         board,
		Contributions: []Contribution{},
		StartedAt:     now,
		EndsAt:        now.Add(room.Settings.RoundDuration),
	}
	room.CurrentRound = round
	room.Status = StatusPlaying
	return round, nil
}

// GuessOutcome reports a single guess attempt. AlreadyGuessed distinguishes
// "someone beat you to it" from a plain miss.
type GuessOutcome struct {
	Correct        bool
	AlreadyGuessed bool
	Word           *Word
}

// ProcessGuess matches the guess against the unguessed words on the board.
// On a hit the word is stamped guessed-by/guessed-at, the round score grows,
// and the guesser's contribution is updated. A guessed word never changes
// again.
func ProcessGuess(round *Round, playerID, playerName, guess string) GuessOutcome {
	normalized := NormalizeWord(guess)
	if normalized == "" {
		return GuessOutcome{}
	}

	for i := range round.Words {
		w := &round.Words[i]
		if NormalizeWord(w.Text) != normalized {
			continue
		}
		if w.GuessedBy != "" {
			return GuessOutcome{AlreadyGuessed: true}
		}
		now := time.Now()
		w.GuessedBy = playerID
		w.GuessedAt = &now
		round.RoundScore += w.Points
		addContribution(round, playerID, playerName, *w)
		return GuessOutcome{Correct: true, Word: w}
	}
	return GuessOutcome{}
}

func addContribution(round *Round, playerID, playerName string, w Word) {
	for i := range round.Contributions {
		c := &round.Contributions[i]
		if c.PlayerID == playerID {
			c.Words = append(c.Words, GuessedWord{Text: w.Text, Points: w.Points})
			c.TotalPoints += w.Points
			return
		}
	}
	round.Contributions = append(round.Contributions, Contribution{
		PlayerID:    playerID,
		PlayerName:  playerName,
		Words:       []GuessedWord{{Text: w.Text, Points: w.Points}},
		TotalPoints: w.Points,
	})
}

// AddWords appends replenishment words to the board. Existing entries are
// never removed or reordered; guessed words stay visible.
func AddWords(round *Round, words []Word) []Word {
	added := make([]Word, len(words))
	for i, w := range words {
		added[i] = Word{ID: w.ID, Text: w.Text, Points: w.Points}
	}
	round.Words = append(round.Words, added...)
	return added
}

// UnguessedCount is how many words are still open on the board.
func UnguessedCount(round *Round) int {
	n := 0
	for _, w := range round.Words {
		if w.GuessedBy == "" {
			n++
		}
	}
	return n
}

// EndRound seals the current round: its score lands on the team, the
// describer cursor advances, and the round moves into history. The room ends
// up finished when the full round count has been played, round-end otherwise.
func EndRound(room *Room) (Round, bool, error) {
	if room.CurrentRound == nil {
		return Round{}, false, ErrNoCurrentRound
	}
	round := *room.CurrentRound

	team := room.Teams[round.TeamID]
	team.Score += round.RoundScore
	if n := len(team.Players); n > 0 {
		team.DescriberIndex = (team.DescriberIndex + 1) % n
	}

	room.RoundHistory = append(room.RoundHistory, round)
	room.CurrentRound = nil

	gameOver := len(room.RoundHistory) >= room.Settings.TotalRounds()
	if gameOver {
		room.Status = StatusFinished
	} else {
		room.Status = StatusRoundEnd
	}
	return round, gameOver, nil
}

// RoundPreview names the team and describer who would play next.
type RoundPreview struct {
	Number    int
	TeamID    TeamID
	Describer Player
}

// NextRoundPreview computes the upcoming turn without mutating anything.
// Absent once the configured round count has been reached.
func NextRoundPreview(room *Room) (RoundPreview, bool) {
	number := len(room.RoundHistory) + 1
	if number > room.Settings.TotalRounds() {
		return RoundPreview{}, false
	}
	teamID := TeamForRound(number, room.Settings.StartingTeam)
	team := room.Teams[teamID]
	if len(team.Players) == 0 {
		return RoundPreview{}, false
	}
	return RoundPreview{
		Number:    number,
		TeamID:    teamID,
		Describer: team.Players[team.DescriberIndex%len(team.Players)],
	}, true
}
