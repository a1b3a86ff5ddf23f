package types

import (
	"time"

	"github.com/wordrush/backend/internal/game"
)

// Client -> Server event names.
const (
	EvtRoomCreate     = "room:create"
	EvtRoomJoin       = "room:join"
	EvtRoomLeave      = "room:leave"
	EvtTeamJoin       = "team:join"
	EvtTeamLeave      = "team:leave"
	EvtGameStart      = "game:start"
	EvtGuessSubmit    = "guess:submit"
	EvtRoundEndEarly  = "round:end-early"
	EvtRoundStartNext = "round:start-next"
)

// Server -> Client event names.
const (
	EvtError         = "error"
	EvtRoomCreated   = "room:created"
	EvtRoomJoined    = "room:joined"
	EvtRoomState     = "room:state"
	EvtPlayerJoined  = "room:player-joined"
	EvtPlayerLeft    = "room:player-left"
	EvtTeamUpdated   = "team:updated"
	EvtGameStarting  = "game:starting"
	EvtRoundStarting = "round:starting"
	EvtRoundStarted  = "round:started"
	EvtRoundEnded    = "round:ended"
	EvtGameEnded     = "game:ended"
	EvtTimerTick     = "timer:tick"
	EvtGuessResult   = "guess:result"
	EvtWordGuessed   = "word:guessed"
	EvtWordsAdded    = "words:added"
	EvtWordsAssigned = "words:assigned"
)

// Error codes surfaced to clients.
const (
	CodeRoomNotFound       = "ROOM_NOT_FOUND"
	CodeRoomFull           = "ROOM_FULL"
	CodeGameAlreadyStarted = "GAME_ALREADY_STARTED"
	CodeNotEnoughPlayers   = "NOT_ENOUGH_PLAYERS"
	CodeNotHost            = "NOT_HOST"
	CodeNotDescriber       = "NOT_DESCRIBER"
	CodeInvalidTeam        = "INVALID_TEAM"
	CodeNotYourTurn        = "NOT_YOUR_TURN"
	CodeInvalidName        = "INVALID_NAME"
	CodeRateLimited        = "RATE_LIMITED"
	CodeBadRequest         = "BAD_REQUEST"
)

type ClientMessage struct {
	Type       string `json:"type"`
	PlayerName string `json:"playerName,omitempty"`
	RoomCode   string `json:"roomCode,omitempty"`
	TeamID     string `json:"teamId,omitempty"`
	Guess      string `json:"guess,omitempty"`
}

type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// RoomCreated doubles as the room:joined ack; the full snapshot follows as
// room:state once the session registers the client.
type RoomCreated struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

type RoomState struct {
	Room *game.Room `json:"room"`
}

type PlayerJoined struct {
	Player game.Player `json:"player"`
}

type PlayerLeft struct {
	PlayerID  string `json:"playerId"`
	NewHostID string `json:"newHostId,omitempty"`
}

type TeamUpdated struct {
	Teams      map[game.TeamID]*game.Team `json:"teams"`
	Unassigned []game.Player              `json:"unassignedPlayers"`
}

type GameStarting struct {
	StartsIn int `json:"startsIn"`
}

type RoundStarting struct {
	RoundNumber   int         `json:"roundNumber"`
	TeamID        game.TeamID `json:"teamId"`
	DescriberName string      `json:"describerName"`
	StartsIn      int         `json:"startsIn"`
}

// RoundStarted carries the round minus its board; words travel separately in
// a words:assigned event.
type RoundStarted struct {
	Round game.Round `json:"round"`
}

type WordsAssigned struct {
	Words []game.Word `json:"words"`
}

type WordsAdded struct {
	Words []game.Word `json:"words"`
}

type TimerTick struct {
	SecondsLeft int `json:"secondsLeft"`
}

type GuessResult struct {
	PlayerID   string     `json:"playerId"`
	PlayerName string     `json:"playerName"`
	Guess      string     `json:"guess"`
	Correct    bool       `json:"correct"`
	Word       *game.Word `json:"word,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

type WordGuessed struct {
	Word          game.Word `json:"word"`
	GuessedBy     string    `json:"guessedBy"`
	GuessedByName string    `json:"guessedByName"`
	NewRoundScore int       `json:"newRoundScore"`
}

type TeamScores struct {
	Red  int `json:"red"`
	Blue int `json:"blue"`
}

type NextRound struct {
	Number        int         `json:"number"`
	TeamID        game.TeamID `json:"teamId"`
	DescriberName string      `json:"describerName"`
}

type RoundEnded struct {
	Round      game.Round `json:"round"`
	TeamScores TeamScores `json:"teamScores"`
	NextRound  *NextRound `json:"nextRound,omitempty"`
}

type GameEnded struct {
	Winner       string       `json:"winner"`
	FinalScores  TeamScores   `json:"finalScores"`
	MVP          game.MVP     `json:"mvp"`
	RoundHistory []game.Round `json:"roundHistory"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
