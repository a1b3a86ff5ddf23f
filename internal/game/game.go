package game

import (
	"strings"
	"time"
)

type TeamID string

const (
	TeamRed  TeamID = "red"
	TeamBlue TeamID = "blue"
)

// Opponent returns the other team.
func (t TeamID) Opponent() TeamID {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

func ParseTeamID(s string) (TeamID, bool) {
	switch TeamID(s) {
	case TeamRed:
		return TeamRed, true
	case TeamBlue:
		return TeamBlue, true
	default:
		return "", false
	}
}

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusRoundEnd Status = "round-end"
	StatusFinished Status = "finished"
)

const (
	RoomCodeLength    = 6
	MaxPlayersPerRoom = 20
	MinPlayersPerTeam = 2

	DefaultRoundSeconds  = 80
	DefaultRoundsPerTeam = 6
	DefaultWordsPerRound = 10

	GameStartCountdownSeconds = 3
	RoundAutoStartSeconds     = 3

	MinWordPoints = 5
	MaxWordPoints = 60
)

type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsHost      bool   `json:"isHost"`
	IsConnected bool   `json:"isConnected"`
}

type Team struct {
	ID             TeamID   `json:"id"`
	Name           string   `json:"name"`
	Players        []Player `json:"players"`
	Score          int      `json:"score"`
	DescriberIndex int      `json:"describerIndex"`
}

// Word is an in-round word instance. GuessedBy/GuessedAt are set at most
// once; a guessed word stays on the board until the round ends.
type Word struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Points    int        `json:"points"`
	GuessedBy string     `json:"guessedBy,omitempty"`
	GuessedAt *time.Time `json:"guessedAt,omitempty"`
}

type GuessedWord struct {
	Text   string `json:"text"`
	Points int    `json:"points"`
}

type Contribution struct {
	PlayerID    string        `json:"playerId"`
	PlayerName  string        `json:"playerName"`
	Words       []GuessedWord `json:"words"`
	TotalPoints int           `json:"totalPoints"`
}

type Round struct {
	Number        int            `json:"number"`
	TeamID        TeamID         `json:"teamId"`
	DescriberID   string         `json:"describerId"`
	DescriberName string         `json:"describerName"`
	Words         []Word         `json:"words"`
	Contributions []Contribution `json:"contributions"`
	RoundScore    int            `json:"roundScore"`
	StartedAt     time.Time      `json:"startedAt"`
	EndsAt        time.Time      `json:"endsAt"`
}

type Settings struct {
	RoundDuration time.Duration `json:"-"`
	RoundSeconds  int           `json:"roundDurationSeconds"`
	RoundsPerTeam int           `json:"totalRoundsPerTeam"`
	WordsPerRound int           `json:"wordsPerRound"`
	StartingTeam  TeamID        `json:"startingTeam"`
}

func DefaultSettings() Settings {
	return Settings{
		RoundDuration: DefaultRoundSeconds * time.Second,
		RoundSeconds:  DefaultRoundSeconds,
		RoundsPerTeam: DefaultRoundsPerTeam,
		WordsPerRound: DefaultWordsPerRound,
		StartingTeam:  TeamRed,
	}
}

// TotalRounds is the full game length: each team describes RoundsPerTeam
// times.
func (s Settings) TotalRounds() int {
	return s.RoundsPerTeam * 2
}

type Room struct {
	Code         string           `json:"code"`
	HostID       string           `json:"hostId"`
	Status       Status           `json:"status"`
	Teams        map[TeamID]*Team `json:"teams"`
	Unassigned   []Player         `json:"unassignedPlayers"`
	CurrentRound *Round           `json:"currentRound"`
	RoundHistory []Round          `json:"roundHistory"`
	Settings     Settings         `json:"settings"`
	CreatedAt    time.Time        `json:"createdAt"`
}

func (r *Room) Team(id TeamID) *Team { return r.Teams[id] }

// AllPlayers returns every member in a stable order: unassigned, then red,
// then blue. Host promotion relies on this order.
func (r *Room) AllPlayers() []Player {
	all := make([]Player, 0, len(r.Unassigned)+len(r.Teams[TeamRed].Players)+len(r.Teams[TeamBlue].Players))
	all = append(all, r.Unassigned...)
	all = append(all, r.Teams[TeamRed].Players...)
	all = append(all, r.Teams[TeamBlue].Players...)
	return all
}

func (r *Room) PlayerCount() int {
	return len(r.Unassigned) + len(r.Teams[TeamRed].Players) + len(r.Teams[TeamBlue].Players)
}

// FindPlayer looks a member up anywhere in the room.
func (r *Room) FindPlayer(playerID string) (Player, bool) {
	for _, p := range r.AllPlayers() {
		if p.ID == playerID {
			return p, true
		}
	}
	return Player{}, false
}

// TeamOf reports which team a player sits on, if any.
func (r *Room) TeamOf(playerID string) (TeamID, bool) {
	for _, id := range []TeamID{TeamRed, TeamBlue} {
		for _, p := range r.Teams[id].Players {
			if p.ID == playerID {
				return id, true
			}
		}
	}
	return "", false
}

// NormalizeWord is the single matching rule for guesses and catalog dedup:
// lowercase, all whitespace removed.
func NormalizeWord(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
