package game

import "errors"

var ErrRoomNotFound = errors.New("room not found")
var ErrRoomFull = errors.New("room full")
var ErrGameAlreadyStarted = errors.New("game already started")
var ErrNotEnoughPlayers = errors.New("not enough players")
var ErrNoDescriber = errors.New("team has no describer")
var ErrNoCurrentRound = errors.New("no round in progress")
var ErrRoundInProgress = errors.New("round already in progress")
var ErrGameCompleted = errors.New("game already completed")
