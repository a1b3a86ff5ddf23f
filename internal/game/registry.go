package game

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"
)

// codeAlphabet skips 0/O/1/I so codes survive being read out loud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Registry owns the live rooms and the player->room index. The two are
// always updated together under the registry lock. Mutations inside a single
// room are additionally serialized by that room's session loop.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]*Room
	playerRooms map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:       make(map[string]*Room),
		playerRooms: make(map[string]string),
	}
}

func (rg *Registry) generateCode() (string, error) {
	for {
		b := make([]byte, RoomCodeLength)
		for i := range b {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
			if err != nil {
				return "", fmt.Errorf("generate room code: %w", err)
			}
			b[i] = codeAlphabet[n.Int64()]
		}
		code := string(b)
		if _, taken := rg.rooms[code]; !taken {
			return code, nil
		}
	}
}

func newTeam(id TeamID, name string) *Team {
	return &Team{ID: id, Name: name, Players: []Player{}}
}

// CreateRoom makes a fresh waiting room with the host as its only
// (unassigned) member.
func (rg *Registry) CreateRoom(hostID, hostName string) (*Room, error) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	code, err := rg.generateCode()
	if err != nil {
		return nil, err
	}

	room := &Room{
		Code:   code,
		HostID: hostID,
		Status: StatusWaiting,
		Teams: map[TeamID]*Team{
			TeamRed:  newTeam(TeamRed, "Red Team"),
			TeamBlue: newTeam(TeamBlue, "Blue Team"),
		},
		Unassigned: []Player{{
			ID:          hostID,
			Name:        hostName,
			IsHost:      true,
			IsConnected: true,
		}},
		RoundHistory: []Round{},
		Settings:     DefaultSettings(),
		CreatedAt:    time.Now(),
	}

	rg.rooms[code] = room
	rg.playerRooms[hostID] = code
	return room, nil
}

// JoinRoom adds a non-host player to the unassigned pool. The code lookup is
// case-insensitive.
func (rg *Registry) JoinRoom(code, playerID, name string) (*Room, error) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	room, ok := rg.rooms[strings.ToUpper(code)]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.Status != StatusWaiting {
		return nil, ErrGameAlreadyStarted
	}
	if room.PlayerCount() >= MaxPlayersPerRoom {
		return nil, ErrRoomFull
	}

	room.Unassigned = append(room.Unassigned, Player{
		ID:          playerID,
		Name:        name,
		IsConnected: true,
	})
	rg.playerRooms[playerID] = room.Code
	return room, nil
}

// JoinTeam moves a player from wherever they currently sit onto the given
// team. Returns false if the room or player is unknown; nothing changes then.
func (rg *Registry) JoinTeam(code, playerID string, team TeamID) (*Room, bool) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	room, ok := rg.rooms[code]
	if !ok {
		return nil, false
	}
	p, found := removeFromAllLocations(room, playerID)
	if !found {
		return nil, false
	}
	room.Teams[team].Players = append(room.Teams[team].Players, p)
	return room, true
}

// LeaveTeam moves a player back into the unassigned pool.
func (rg *Registry) LeaveTeam(code, playerID string) (*Room, bool) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	room, ok := rg.rooms[code]
	if !ok {
		return nil, false
	}
	p, found := removeFromAllLocations(room, playerID)
	if !found {
		return nil, false
	}
	room.Unassigned = append(room.Unassigned, p)
	return room, true
}

// RemoveResult reports what RemovePlayer did. When Deleted is set the room is
// gone and the caller must tear down any timers or sessions bound to it.
type RemoveResult struct {
	Room      *Room
	NewHostID string
	Deleted   bool
}

// RemovePlayer takes a player out of the room and the index. The first
// remaining member (unassigned first, then red, then blue) inherits the host
// flag; an emptied room is deleted outright.
func (rg *Registry) RemovePlayer(code, playerID string) (RemoveResult, bool) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	room, ok := rg.rooms[code]
	if !ok {
		return RemoveResult{}, false
	}
	if _, found := removeFromAllLocations(room, playerID); !found {
		return RemoveResult{}, false
	}
	delete(rg.playerRooms, playerID)

	res := RemoveResult{Room: room}
	if room.HostID == playerID {
		if all := room.AllPlayers(); len(all) > 0 {
			res.NewHostID = all[0].ID
			room.HostID = all[0].ID
			setHostFlag(room, all[0].ID)
		}
	}

	if room.PlayerCount() == 0 {
		rg.deleteLocked(code)
		return RemoveResult{Deleted: true}, true
	}
	return res, true
}

// CanStart checks the start preconditions, reporting the first failing one.
// Red is checked before blue.
func CanStart(room *Room) (bool, string) {
	if len(room.Teams[TeamRed].Players) < MinPlayersPerTeam {
		return false, fmt.Sprintf("Red team needs at least %d players", MinPlayersPerTeam)
	}
	if len(room.Teams[TeamBlue].Players) < MinPlayersPerTeam {
		return false, fmt.Sprintf("Blue team needs at least %d players", MinPlayersPerTeam)
	}
	return true, ""
}

// StartGame flips the room to playing and resets both describer cursors. The
// first round itself is started separately.
func (rg *Registry) StartGame(code string) (*Room, error) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	room, ok := rg.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	if room.Status != StatusWaiting {
		return nil, ErrGameAlreadyStarted
	}
	if ok, _ := CanStart(room); !ok {
		return nil, ErrNotEnoughPlayers
	}

	room.Status = StatusPlaying
	room.Teams[TeamRed].DescriberIndex = 0
	room.Teams[TeamBlue].DescriberIndex = 0
	return room, nil
}

func (rg *Registry) Room(code string) (*Room, bool) {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	room, ok := rg.rooms[strings.ToUpper(code)]
	return room, ok
}

func (rg *Registry) RoomByPlayer(playerID string) (*Room, bool) {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	code, ok := rg.playerRooms[playerID]
	if !ok {
		return nil, false
	}
	room, ok := rg.rooms[code]
	return room, ok
}

func (rg *Registry) RoomCount() int {
	rg.mu.RLock()
	defer rg.mu.RUnlock()
	return len(rg.rooms)
}

// DeleteRoom drops a room and every index entry pointing at it.
func (rg *Registry) DeleteRoom(code string) {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	rg.deleteLocked(code)
}

func (rg *Registry) deleteLocked(code string) {
	room, ok := rg.rooms[code]
	if !ok {
		return
	}
	for _, p := range room.AllPlayers() {
		delete(rg.playerRooms, p.ID)
	}
	delete(rg.rooms, code)
}

func setHostFlag(room *Room, playerID string) {
	for i := range room.Unassigned {
		if room.Unassigned[i].ID == playerID {
			room.Unassigned[i].IsHost = true
			return
		}
	}
	for _, t := range []TeamID{TeamRed, TeamBlue} {
		players := room.Teams[t].Players
		for i := range players {
			if players[i].ID == playerID {
				players[i].IsHost = true
				return
			}
		}
	}
}

func removeFromAllLocations(room *Room, playerID string) (Player, bool) {
	for i, p := range room.Unassigned {
		if p.ID == playerID {
			room.Unassigned = append(room.Unassigned[:i], room.Unassigned[i+1:]...)
			return p, true
		}
	}
	for _, t := range []TeamID{TeamRed, TeamBlue} {
		team := room.Teams[t]
		for i, p := range team.Players {
			if p.ID == playerID {
				team.Players = append(team.Players[:i], team.Players[i+1:]...)
				return p, true
			}
		}
	}
	return Player{}, false
}
