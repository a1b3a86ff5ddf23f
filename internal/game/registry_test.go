package game

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// checkMembership asserts the core invariant: no player appears twice across
// unassigned/red/blue, and every indexed player is locatable in their room.
func checkMembership(t *testing.T, rg *Registry, room *Room) {
	t.Helper()
	seen := map[string]bool{}
	for _, p := range room.AllPlayers() {
		if seen[p.ID] {
			t.Fatalf("player %s appears twice in room %s", p.ID, room.Code)
		}
		seen[p.ID] = true

		indexed, ok := rg.RoomByPlayer(p.ID)
		if !ok || indexed.Code != room.Code {
			t.Fatalf("player %s not indexed back to room %s", p.ID, room.Code)
		}
	}
}

func mustCreate(t *testing.T, rg *Registry, hostID, hostName string) *Room {
	t.Helper()
	room, err := rg.CreateRoom(hostID, hostName)
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	return room
}

func TestCreateRoom(t *testing.T) {
	rg := NewRegistry()
	room := mustCreate(t, rg, "h1", "Hana")

	if len(room.Code) != RoomCodeLength {
		t.Fatalf("code length: got %d, want %d", len(room.Code), RoomCodeLength)
	}
	for _, c := range room.Code {
		if !strings.ContainsRune(codeAlphabet, c) {
			t.Fatalf("code %q contains %q outside the alphabet", room.Code, c)
		}
	}
	if room.Status != StatusWaiting {
		t.Fatalf("status: got %v, want waiting", room.Status)
	}
	if len(room.Unassigned) != 1 || !room.Unassigned[0].IsHost {
		t.Fatalf("host should be the sole unassigned player: %+v", room.Unassigned)
	}
	if room.HostID != "h1" {
		t.Fatalf("hostId: got %s", room.HostID)
	}
	checkMembership(t, rg, room)
}

func TestJoinRoom(t *testing.T) {
	t.Run("success and case-insensitive code", func(t *testing.T) {
		rg := NewRegistry()
		room := mustCreate(t, rg, "h1", "Hana")

		joined, err := rg.JoinRoom(strings.ToLower(room.Code), "p2", "Bo")
		if err != nil {
			t.Fatalf("JoinRoom: %v", err)
		}
		if joined.Code != room.Code {
			t.Fatalf("joined wrong room")
		}
		if len(room.Unassigned) != 2 || room.Unassigned[1].IsHost {
			t.Fatalf("joiner should be non-host unassigned: %+v", room.Unassigned)
		}
		checkMembership(t, rg, room)
	})

	t.Run("unknown code", func(t *testing.T) {
		rg := NewRegistry()
		if _, err := rg.JoinRoom("NOPE22", "p1", "Bo"); !errors.Is(err, ErrRoomNotFound) {
			t.Fatalf("want ErrRoomNotFound, got %v", err)
		}
	})

	t.Run("not waiting", func(t *testing.T) {
		rg := NewRegistry()
		room := mustCreate(t, rg, "h1", "Hana")
		room.Status = StatusPlaying

		if _, err := rg.JoinRoom(room.Code, "p2", "Bo"); !errors.Is(err, ErrGameAlreadyStarted) {
			t.Fatalf("want ErrGameAlreadyStarted, got %v", err)
		}
	})

	t.Run("full", func(t *testing.T) {
		rg := NewRegistry()
		room := mustCreate(t, rg, "h1", "Hana")
		for i := 1; i < MaxPlayersPerRoom; i++ {
			if _, err := rg.JoinRoom(room.Code, fmt.Sprintf("p%d", i), "Player"); err != nil {
				t.Fatalf("join %d: %v", i, err)
			}
		}
		if _, err := rg.JoinRoom(room.Code, "pX", "Late"); !errors.Is(err, ErrRoomFull) {
			t.Fatalf("want ErrRoomFull, got %v", err)
		}
	})
}

func TestJoinAndLeaveTeam(t *testing.T) {
	rg := NewRegistry()
	room := mustCreate(t, rg, "h1", "Hana")
	rg.JoinRoom(room.Code, "p2", "Bo")

	if _, ok := rg.JoinTeam(room.Code, "h1", TeamRed); !ok {
		t.Fatalf("JoinTeam failed")
	}
	if len(room.Teams[TeamRed].Players) != 1 || len(room.Unassigned) != 1 {
		t.Fatalf("host should have moved to red: red=%d unassigned=%d",
			len(room.Teams[TeamRed].Players), len(room.Unassigned))
	}
	checkMembership(t, rg, room)

	// Switching teams moves, never duplicates.
	if _, ok := rg.JoinTeam(room.Code, "h1", TeamBlue); !ok {
		t.Fatalf("JoinTeam blue failed")
	}
	if len(room.Teams[TeamRed].Players) != 0 || len(room.Teams[TeamBlue].Players) != 1 {
		t.Fatalf("host should have switched red->blue")
	}
	checkMembership(t, rg, room)

	if _, ok := rg.LeaveTeam(room.Code, "h1"); !ok {
		t.Fatalf("LeaveTeam failed")
	}
	if len(room.Teams[TeamBlue].Players) != 0 || len(room.Unassigned) != 2 {
		t.Fatalf("host should be unassigned again")
	}
	checkMembership(t, rg, room)

	// Unknown player is a no-op.
	if _, ok := rg.JoinTeam(room.Code, "ghost", TeamRed); ok {
		t.Fatalf("expected no-op for unknown player")
	}
}

func TestRemovePlayer(t *testing.T) {
	t.Run("host promotion follows stable order", func(t *testing.T) {
		rg := NewRegistry()
		room := mustCreate(t, rg, "h1", "Hana")
		rg.JoinRoom(room.Code, "p2", "Bo")
		rg.JoinRoom(room.Code, "p3", "Cy")
		rg.JoinTeam(room.Code, "p2", TeamRed)

		res, ok := rg.RemovePlayer(room.Code, "h1")
		if !ok {
			t.Fatalf("RemovePlayer failed")
		}
		// p3 is first in the unassigned list, ahead of team members.
		if res.NewHostID != "p3" {
			t.Fatalf("new host: got %s, want p3", res.NewHostID)
		}
		if room.HostID != "p3" {
			t.Fatalf("room hostId not updated")
		}
		p, _ := room.FindPlayer("p3")
		if !p.IsHost {
			t.Fatalf("promoted player should carry the host flag")
		}
		if _, ok := rg.RoomByPlayer("h1"); ok {
			t.Fatalf("removed player still indexed")
		}
		checkMembership(t, rg, room)
	})

	t.Run("last player out deletes the room", func(t *testing.T) {
		rg := NewRegistry()
		room := mustCreate(t, rg, "h1", "Hana")

		res, ok := rg.RemovePlayer(room.Code, "h1")
		if !ok || !res.Deleted {
			t.Fatalf("expected room deletion, got %+v", res)
		}
		if rg.RoomCount() != 0 {
			t.Fatalf("room still registered")
		}
		if _, ok := rg.RoomByPlayer("h1"); ok {
			t.Fatalf("player index not cleaned up")
		}
	})

	t.Run("unknown player is a no-op", func(t *testing.T) {
		rg := NewRegistry()
		room := mustCreate(t, rg, "h1", "Hana")
		if _, ok := rg.RemovePlayer(room.Code, "ghost"); ok {
			t.Fatalf("expected no-op")
		}
		if room.PlayerCount() != 1 {
			t.Fatalf("membership changed on no-op")
		}
	})
}

func TestCanStart(t *testing.T) {
	cases := []struct {
		name    string
		red     int
		blue    int
		want    bool
		mention string
	}{
		{name: "both teams ready", red: 2, blue: 2, want: true},
		{name: "red short", red: 1, blue: 2, want: false, mention: "Red"},
		{name: "blue short", red: 2, blue: 1, want: false, mention: "Blue"},
		{name: "both short reports red first", red: 0, blue: 0, want: false, mention: "Red"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rg := NewRegistry()
			room := mustCreate(t, rg, "h1", "Hana")
			for i := 0; i < tc.red; i++ {
				id := fmt.Sprintf("r%d", i)
				rg.JoinRoom(room.Code, id, "R")
				rg.JoinTeam(room.Code, id, TeamRed)
			}
			for i := 0; i < tc.blue; i++ {
				id := fmt.Sprintf("b%d", i)
				rg.JoinRoom(room.Code, id, "B")
				rg.JoinTeam(room.Code, id, TeamBlue)
			}

			ok, reason := CanStart(room)
			if ok != tc.want {
				t.Fatalf("CanStart: got %v (%q), want %v", ok, reason, tc.want)
			}
			if !ok && !strings.Contains(reason, tc.mention) {
				t.Fatalf("reason %q should mention %s team", reason, tc.mention)
			}
		})
	}
}

func TestStartGame(t *testing.T) {
	rg := NewRegistry()
	room := mustCreate(t, rg, "h1", "Hana")
	for _, id := range []string{"r1", "r2"} {
		rg.JoinRoom(room.Code, id, "R")
		rg.JoinTeam(room.Code, id, TeamRed)
	}

	if _, err := rg.StartGame(room.Code); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("want ErrNotEnoughPlayers, got %v", err)
	}

	for _, id := range []string{"b1", "b2"} {
		rg.JoinRoom(room.Code, id, "B")
		rg.JoinTeam(room.Code, id, TeamBlue)
	}
	room.Teams[TeamRed].DescriberIndex = 3 // stale cursor from a prior game

	started, err := rg.StartGame(room.Code)
	if err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if started.Status != StatusPlaying {
		t.Fatalf("status: got %v, want playing", started.Status)
	}
	if started.Teams[TeamRed].DescriberIndex != 0 || started.Teams[TeamBlue].DescriberIndex != 0 {
		t.Fatalf("describer cursors should reset to 0")
	}

	if _, err := rg.StartGame(room.Code); !errors.Is(err, ErrGameAlreadyStarted) {
		t.Fatalf("want ErrGameAlreadyStarted on second start, got %v", err)
	}
}
