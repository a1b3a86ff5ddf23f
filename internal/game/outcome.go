package game

import "strings"

const WinnerTie = "tie"

type MVP struct {
	PlayerID    string `json:"playerId"`
	PlayerName  string `json:"playerName"`
	TotalPoints int    `json:"totalPoints"`
}

type Outcome struct {
	Winner      string         `json:"winner"` // "red", "blue" or "tie"
	FinalScores map[TeamID]int `json:"finalScores"`
	MVP         MVP            `json:"mvp"`
}

// GameOutcome decides the winner and the MVP from the sealed history. The
// MVP is the player with the highest contribution total across all rounds;
// equal totals break by name (case-insensitive), then by ID, so the result
// never depends on map iteration order.
func GameOutcome(room *Room) Outcome {
	red := room.Teams[TeamRed].Score
	blue := room.Teams[TeamBlue].Score

	winner := WinnerTie
	switch {
	case red > blue:
		winner = string(TeamRed)
	case blue > red:
		winner = string(TeamBlue)
	}

	totals := make(map[string]*MVP)
	for _, round := range room.RoundHistory {
		for _, c := range round.Contributions {
			t, ok := totals[c.PlayerID]
			if !ok {
				t = &MVP{PlayerID: c.PlayerID, PlayerName: c.PlayerName}
				totals[c.PlayerID] = t
			}
			t.TotalPoints += c.TotalPoints
		}
	}

	mvp := MVP{PlayerName: "N/A"}
	for _, t := range totals {
		if beats(*t, mvp) {
			mvp = *t
		}
	}

	return Outcome{
		Winner:      winner,
		FinalScores: map[TeamID]int{TeamRed: red, TeamBlue: blue},
		MVP:         mvp,
	}
}

func beats(a, b MVP) bool {
	if b.PlayerID == "" {
		return a.TotalPoints > 0
	}
	if a.TotalPoints != b.TotalPoints {
		return a.TotalPoints > b.TotalPoints
	}
	an, bn := strings.ToLower(a.PlayerName), strings.ToLower(b.PlayerName)
	if an != bn {
		return an < bn
	}
	return a.PlayerID < b.PlayerID
}
