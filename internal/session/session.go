package session

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wordrush/backend/internal/game"
	"github.com/wordrush/backend/internal/words"
	"github.com/wordrush/backend/pkg/types"
)

// Guess flood protection per player.
const (
	guessRateLimit = rate.Limit(3)
	guessRateBurst = 5
)

// recentGuessCap bounds the guess feed kept for state snapshots.
const recentGuessCap = 50

// replenishBelow and replenishBatch control mid-round word top-up: once
// fewer than replenishBelow words are open on the board, replenishBatch more
// are drawn.
const (
	replenishBelow = 8
	replenishBatch = 2
)

type Msg interface{ isSessionMsg() }

// Join registers a client outbox with the session. The joining client gets a
// full room snapshot immediately; when Announce is set the rest of the room
// is told about the new player.
type Join struct {
	PlayerID string
	Outbox   chan []byte
	Announce bool
}

// Leave is a connection drop or an explicit room:leave. The player is
// removed from the room entirely.
type Leave struct{ PlayerID string }

// JoinRequest asks the session to admit a new player to its room. Membership
// is mutated here, inside the room's loop, so a join can never race a
// snapshot being marshalled. The reply carries the registry's join error,
// if any.
type JoinRequest struct {
	PlayerID   string
	PlayerName string
	Reply      chan error
}

// Summary is the room digest served to the HTTP lookup endpoint.
type Summary struct {
	Code        string
	Status      game.Status
	PlayerCount int
}

// GetSummary reads the summary from inside the loop.
type GetSummary struct{ Reply chan Summary }

// FromClient is a parsed in-room event.
type FromClient struct {
	PlayerID string
	Msg      types.ClientMessage
}

// GetState reflects internal state without data races; test-only.
type GetState struct{ Reply chan View }

type Shutdown struct{}

type View struct {
	NumClients  int
	TimerGen    int
	Room        game.Room
	RecentGuess []types.GuessResult
}

func (Join) isSessionMsg()        {}
func (Leave) isSessionMsg()       {}
func (JoinRequest) isSessionMsg() {}
func (FromClient) isSessionMsg()  {}
func (GetState) isSessionMsg()    {}
func (GetSummary) isSessionMsg()  {}
func (Shutdown) isSessionMsg()    {}

// Timer and countdown fires are generation-tagged: arming anything bumps the
// generation, so a stale fire from an already-superseded timer is dropped on
// arrival instead of ending the wrong round.
type timerTick struct {
	gen         int
	secondsLeft int
}

type timerExpired struct{ gen int }

// previewDue fires after the game-start countdown and shows the first
// round's transition screen.
type previewDue struct{ gen int }

// autoStartDue fires after a natural round end and starts the next round.
type autoStartDue struct{ gen int }

func (timerTick) isSessionMsg()    {}
func (timerExpired) isSessionMsg() {}
func (previewDue) isSessionMsg()   {}
func (autoStartDue) isSessionMsg() {}

// Session serializes every mutation of one room. It is the only writer for
// its room; the registry lock covers only the cross-room indexes.
type Session struct {
	code     string
	inbox    chan Msg
	registry *game.Registry
	catalog  *words.Catalog
	room     *game.Room

	clients  map[string]chan []byte
	limiters map[string]*rate.Limiter
	recent   []types.GuessResult

	timerGen  int
	timerStop chan struct{}

	onClose func(code string)
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, room *game.Room, registry *game.Registry, catalog *words.Catalog, onClose func(code string), log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		code:     room.Code,
		inbox:    make(chan Msg, 64),
		registry: registry,
		catalog:  catalog,
		room:     room,
		clients:  make(map[string]chan []byte),
		limiters: make(map[string]*rate.Limiter),
		onClose:  onClose,
		log:      log.With(zap.String("room", room.Code)),
		ctx:      ctx,
		cancel:   cancel,
	}
	go s.loop()
	return s
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

// Done is closed once the session loop has exited. Callers waiting on a
// reply channel should select on it so a dying room cannot strand them.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.handleJoin(msg)
			case Leave:
				s.handleLeave(msg.PlayerID)
			case JoinRequest:
				_, err := s.registry.JoinRoom(s.code, msg.PlayerID, msg.PlayerName)
				msg.Reply <- err
			case FromClient:
				s.handleClient(msg.PlayerID, msg.Msg)
			case timerTick:
				if msg.gen == s.timerGen {
					s.broadcast(types.EvtTimerTick, types.TimerTick{SecondsLeft: msg.secondsLeft})
				}
			case timerExpired:
				if msg.gen == s.timerGen {
					s.endRound(true)
				}
			case previewDue:
				if msg.gen == s.timerGen {
					s.broadcastRoundPreview()
				}
			case autoStartDue:
				if msg.gen == s.timerGen {
					s.startNextRound("")
				}
			case GetSummary:
				msg.Reply <- Summary{
					Code:        s.room.Code,
					Status:      s.room.Status,
					PlayerCount: s.room.PlayerCount(),
				}
			case GetState:
				view := View{
					NumClients:  len(s.clients),
					TimerGen:    s.timerGen,
					Room:        *s.room,
					RecentGuess: append([]types.GuessResult(nil), s.recent...),
				}
				msg.Reply <- view
			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) shutdown() {
	s.invalidateTimer()
	for id, ch := range s.clients {
		close(ch)
		delete(s.clients, id)
	}
	s.cancel()
}

func (s *Session) handleJoin(msg Join) {
	s.clients[msg.PlayerID] = msg.Outbox
	s.sendTo(msg.PlayerID, types.EvtRoomState, types.RoomState{Room: s.room})

	if msg.Announce {
		if p, ok := s.room.FindPlayer(msg.PlayerID); ok {
			s.broadcastExcept(msg.PlayerID, types.EvtPlayerJoined, types.PlayerJoined{Player: p})
			s.broadcastTeams()
		}
	}
}

func (s *Session) handleLeave(playerID string) {
	if ch, ok := s.clients[playerID]; ok {
		close(ch)
		delete(s.clients, playerID)
	}
	delete(s.limiters, playerID)

	res, ok := s.registry.RemovePlayer(s.code, playerID)
	if !ok {
		return
	}
	if res.Deleted {
		s.log.Info("room emptied, closing session")
		s.catalog.ReleaseRoom(s.code)
		if s.onClose != nil {
			s.onClose(s.code)
		}
		s.shutdown()
		return
	}

	s.broadcast(types.EvtPlayerLeft, types.PlayerLeft{PlayerID: playerID, NewHostID: res.NewHostID})
	s.broadcastTeams()
}

func (s *Session) handleClient(playerID string, msg types.ClientMessage) {
	switch msg.Type {
	case types.EvtRoomLeave:
		s.handleLeave(playerID)
	case types.EvtTeamJoin:
		s.handleTeamJoin(playerID, msg.TeamID)
	case types.EvtTeamLeave:
		s.handleTeamLeave(playerID)
	case types.EvtGameStart:
		s.handleGameStart(playerID)
	case types.EvtGuessSubmit:
		s.handleGuess(playerID, msg.Guess)
	case types.EvtRoundEndEarly:
		s.handleEndEarly(playerID)
	case types.EvtRoundStartNext:
		s.handleStartNext(playerID)
	default:
		s.errorTo(playerID, types.CodeBadRequest, "unknown event type")
	}
}

func (s *Session) handleTeamJoin(playerID, teamID string) {
	team, ok := game.ParseTeamID(teamID)
	if !ok {
		s.errorTo(playerID, types.CodeInvalidTeam, "no such team")
		return
	}
	// Team switching is a lobby activity; once play starts, rosters freeze.
	if s.room.Status != game.StatusWaiting {
		s.errorTo(playerID, types.CodeGameAlreadyStarted, "teams are locked after the game starts")
		return
	}
	if _, ok := s.registry.JoinTeam(s.code, playerID, team); !ok {
		return
	}
	s.broadcastTeams()
}

func (s *Session) handleTeamLeave(playerID string) {
	if _, ok := s.registry.LeaveTeam(s.code, playerID); !ok {
		return
	}
	s.broadcastTeams()
}

func (s *Session) handleGameStart(playerID string) {
	if s.room.HostID != playerID {
		s.errorTo(playerID, types.CodeNotHost, "only the host can start the game")
		return
	}
	if ok, reason := game.CanStart(s.room); !ok {
		s.errorTo(playerID, types.CodeNotEnoughPlayers, reason)
		return
	}
	if _, err := s.registry.StartGame(s.code); err != nil {
		s.errorTo(playerID, types.CodeGameAlreadyStarted, "game has already started")
		return
	}

	s.log.Info("game starting")
	s.broadcast(types.EvtGameStarting, types.GameStarting{StartsIn: game.GameStartCountdownSeconds})
	s.scheduleAfter(game.GameStartCountdownSeconds*time.Second, func(gen int) Msg {
		return previewDue{gen: gen}
	})
}

func (s *Session) handleGuess(playerID, guess string) {
	round := s.room.CurrentRound
	if round == nil {
		return
	}
	team, onTeam := s.room.TeamOf(playerID)
	if !onTeam || team != round.TeamID || playerID == round.DescriberID {
		s.errorTo(playerID, types.CodeNotYourTurn, "only guessers on the playing team can guess")
		return
	}
	if !s.limiter(playerID).Allow() {
		s.errorTo(playerID, types.CodeRateLimited, "slow down")
		return
	}
	player, _ := s.room.FindPlayer(playerID)

	outcome := game.ProcessGuess(round, playerID, player.Name, guess)

	result := types.GuessResult{
		PlayerID:   playerID,
		PlayerName: player.Name,
		Guess:      guess,
		Correct:    outcome.Correct,
		Word:       outcome.Word,
		Timestamp:  time.Now(),
	}
	s.recent = append(s.recent, result)
	if len(s.recent) > recentGuessCap {
		s.recent = s.recent[len(s.recent)-recentGuessCap:]
	}
	s.broadcast(types.EvtGuessResult, result)

	if !outcome.Correct {
		return
	}

	s.broadcast(types.EvtWordGuessed, types.WordGuessed{
		Word:          *outcome.Word,
		GuessedBy:     playerID,
		GuessedByName: player.Name,
		NewRoundScore: round.RoundScore,
	})

	if game.UnguessedCount(round) < replenishBelow {
		fresh := s.catalog.DrawReplenishment(s.code, replenishBatch)
		if len(fresh) > 0 {
			added := game.AddWords(round, fresh)
			s.broadcast(types.EvtWordsAdded, types.WordsAdded{Words: added})
		}
	}
}

func (s *Session) handleEndEarly(playerID string) {
	round := s.room.CurrentRound
	if round == nil {
		return
	}
	if round.DescriberID != playerID {
		s.errorTo(playerID, types.CodeNotDescriber, "only the describer can end the round")
		return
	}
	s.invalidateTimer()
	s.endRound(false)
}

func (s *Session) handleStartNext(playerID string) {
	preview, ok := game.NextRoundPreview(s.room)
	if !ok {
		return
	}
	if preview.Describer.ID != playerID {
		s.errorTo(playerID, types.CodeNotDescriber, "only the next describer can start the round")
		return
	}
	startable := s.room.Status == game.StatusRoundEnd ||
		s.room.Status == game.StatusWaiting ||
		(s.room.Status == game.StatusPlaying && s.room.CurrentRound == nil)
	if !startable {
		s.errorTo(playerID, types.CodeGameAlreadyStarted, "round cannot be started right now")
		return
	}
	s.startNextRound(playerID)
}

// startNextRound draws a fresh board and opens the round. requestedBy is
// only used to route a failure back to the actor; empty on autostart.
func (s *Session) startNextRound(requestedBy string) {
	s.invalidateTimer()

	board := s.catalog.DrawRoundSet(s.code, s.room.Settings.WordsPerRound, nil)
	round, err := game.StartRound(s.room, board)
	if err != nil {
		s.log.Warn("round not started", zap.Error(err))
		if requestedBy != "" {
			s.errorTo(requestedBy, types.CodeBadRequest, err.Error())
		}
		return
	}
	s.log.Info("round started",
		zap.Int("round", round.Number),
		zap.String("team", string(round.TeamID)),
		zap.Int("words", len(round.Words)))

	// The board travels separately so UIs can gate who renders it.
	stripped := *round
	stripped.Words = []game.Word{}
	s.broadcast(types.EvtRoundStarted, types.RoundStarted{Round: stripped})
	s.broadcast(types.EvtWordsAssigned, types.WordsAssigned{Words: round.Words})

	s.startRoundTimer(s.room.Settings.RoundSeconds)
}

func (s *Session) endRound(auto bool) {
	round, gameOver, err := game.EndRound(s.room)
	if err != nil {
		return
	}
	s.invalidateTimer()
	s.log.Info("round ended",
		zap.Int("round", round.Number),
		zap.Int("score", round.RoundScore),
		zap.Bool("gameOver", gameOver))

	ended := types.RoundEnded{
		Round: round,
		TeamScores: types.TeamScores{
			Red:  s.room.Teams[game.TeamRed].Score,
			Blue: s.room.Teams[game.TeamBlue].Score,
		},
	}
	if preview, ok := game.NextRoundPreview(s.room); ok {
		ended.NextRound = &types.NextRound{
			Number:        preview.Number,
			TeamID:        preview.TeamID,
			DescriberName: preview.Describer.Name,
		}
	}
	s.broadcast(types.EvtRoundEnded, ended)

	if gameOver {
		s.endGame()
		return
	}
	if auto {
		// Natural expiry rolls into the next round on its own; an early end
		// waits for the next describer to press start.
		s.scheduleAfter(game.RoundAutoStartSeconds*time.Second, func(gen int) Msg {
			return autoStartDue{gen: gen}
		})
	}
}

func (s *Session) endGame() {
	outcome := game.GameOutcome(s.room)
	s.log.Info("game ended",
		zap.String("winner", outcome.Winner),
		zap.String("mvp", outcome.MVP.PlayerName))

	s.broadcast(types.EvtGameEnded, types.GameEnded{
		Winner: outcome.Winner,
		FinalScores: types.TeamScores{
			Red:  outcome.FinalScores[game.TeamRed],
			Blue: outcome.FinalScores[game.TeamBlue],
		},
		MVP:          outcome.MVP,
		RoundHistory: s.room.RoundHistory,
	})
	s.catalog.ReleaseRoom(s.code)
}

func (s *Session) broadcastRoundPreview() {
	preview, ok := game.NextRoundPreview(s.room)
	if !ok {
		return
	}
	s.broadcast(types.EvtRoundStarting, types.RoundStarting{
		RoundNumber:   preview.Number,
		TeamID:        preview.TeamID,
		DescriberName: preview.Describer.Name,
		StartsIn:      0, // manual start by the describer
	})
}

// startRoundTimer arms the round countdown: a tick every second and an
// expiry at zero, all tagged with a fresh generation.
func (s *Session) startRoundTimer(seconds int) {
	s.invalidateTimer()
	gen := s.timerGen
	stop := make(chan struct{})
	s.timerStop = stop

	s.broadcast(types.EvtTimerTick, types.TimerTick{SecondsLeft: seconds})

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		left := seconds
		for {
			select {
			case <-ticker.C:
				left--
				if left <= 0 {
					s.post(timerExpired{gen: gen})
					return
				}
				s.post(timerTick{gen: gen, secondsLeft: left})
			case <-stop:
				return
			case <-s.ctx.Done():
				return
			}
		}
	}()
}

// invalidateTimer bumps the generation so any in-flight fire is stale, and
// releases the current timer goroutine if one is running.
func (s *Session) invalidateTimer() {
	s.timerGen++
	if s.timerStop != nil {
		close(s.timerStop)
		s.timerStop = nil
	}
}

// scheduleAfter arms a one-shot, generation-tagged delayed message.
func (s *Session) scheduleAfter(d time.Duration, build func(gen int) Msg) {
	s.invalidateTimer()
	msg := build(s.timerGen)
	time.AfterFunc(d, func() { s.post(msg) })
}

// post delivers an internal message unless the session is gone.
func (s *Session) post(m Msg) {
	select {
	case s.inbox <- m:
	case <-s.ctx.Done():
	}
}

func (s *Session) limiter(playerID string) *rate.Limiter {
	l, ok := s.limiters[playerID]
	if !ok {
		l = rate.NewLimiter(guessRateLimit, guessRateBurst)
		s.limiters[playerID] = l
	}
	return l
}

func (s *Session) broadcastTeams() {
	s.broadcast(types.EvtTeamUpdated, types.TeamUpdated{
		Teams:      s.room.Teams,
		Unassigned: s.room.Unassigned,
	})
}

// encode marshals inside the session loop, so payloads referencing live
// room state are serialized race-free.
func (s *Session) encode(event string, payload any) []byte {
	data, err := json.Marshal(types.ServerMessage{Type: event, Payload: payload})
	if err != nil {
		s.log.Error("encode event", zap.String("event", event), zap.Error(err))
		return nil
	}
	return data
}

func (s *Session) broadcast(event string, payload any) {
	data := s.encode(event, payload)
	if data == nil {
		return
	}
	for id, ch := range s.clients {
		select {
		case ch <- data:
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(s.clients, id)
		}
	}
}

func (s *Session) broadcastExcept(playerID, event string, payload any) {
	data := s.encode(event, payload)
	if data == nil {
		return
	}
	for id, ch := range s.clients {
		if id == playerID {
			continue
		}
		select {
		case ch <- data:
		default:
			close(ch)
			delete(s.clients, id)
		}
	}
}

func (s *Session) sendTo(playerID, event string, payload any) {
	ch, ok := s.clients[playerID]
	if !ok {
		return
	}
	data := s.encode(event, payload)
	if data == nil {
		return
	}
	select {
	case ch <- data:
	default:
		close(ch)
		delete(s.clients, playerID)
	}
}

func (s *Session) errorTo(playerID, code, message string) {
	s.sendTo(playerID, types.EvtError, types.Error{Code: code, Message: message})
}
