package proto

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDecodeClient(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		wantType string
		wantErr  error
	}{
		{"init", `{"type":"init","playerId":"a","position":{"x":1,"y":2,"z":3}}`, TypeInit, nil},
		{"update_player", `{"type":"update_player","playerId":"a","position":{"x":1,"y":2,"z":3}}`, TypeUpdatePlayer, nil},
		{"legacy update", `{"type":"update","position":{"x":0,"y":0,"z":0}}`, TypeUpdatePlayer, nil},
		{"not json", `hello`, "", ErrMalformed},
		{"missing type", `{"playerId":"a"}`, "", ErrMalformed},
		{"missing position", `{"type":"update_player","playerId":"a"}`, "", ErrMalformed},
		{"bad position", `{"type":"init","position":{"x":"left"}}`, "", ErrMalformed},
		{"unknown", `{"type":"chat","text":"hi"}`, "", ErrUnknownType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, err := DecodeClient([]byte(tc.raw))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Type != tc.wantType {
				t.Fatalf("type = %q, want %q", m.Type, tc.wantType)
			}
		})
	}
}

func TestEncodeServerShapes(t *testing.T) {
	cases := []struct {
		name string
		msg  ServerMessage
		want string
	}{
		{"empty init keeps players", InitSnapshot(nil), `{"type":"init","players":[]}`},
		{"init", InitSnapshot([]Player{{PlayerID: "a", Position: Vec3{X: 1}}}),
			`{"type":"init","players":[{"playerId":"a","position":{"x":1,"y":0,"z":0}}]}`},
		{"init_player", InitPlayer(Player{PlayerID: "b", Position: Vec3{Y: 2}}),
			`{"type":"init_player","player":{"playerId":"b","position":{"x":0,"y":2,"z":0}}}`},
		{"update_player", UpdatePlayer(Player{PlayerID: "b", Position: Vec3{Z: -1}}),
			`{"type":"update_player","player":{"playerId":"b","position":{"x":0,"y":0,"z":-1}}}`},
		{"remove_player", RemovePlayer("b"), `{"type":"remove_player","playerId":"b"}`},
		{"welcome", Welcome("c"), `{"type":"welcome","playerId":"c"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := EncodeServer(tc.msg)
			if err != nil {
				t.Fatal(err)
			}
			if string(b) != tc.want {
				t.Fatalf("got  %s\nwant %s", b, tc.want)
			}
		})
	}
}

func TestDecodeServerValidates(t *testing.T) {
	if _, err := DecodeServer([]byte(`{"type":"update_player"}`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("update_player without player: %v", err)
	}
	if _, err := DecodeServer([]byte(`{"type":"remove_player"}`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("remove_player without id: %v", err)
	}
	if _, err := DecodeServer([]byte(`{"type":"state","players":[]}`)); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("legacy state broadcast should be unknown: %v", err)
	}
	m, err := DecodeServer([]byte(`{"type":"init","players":[{"playerId":"a","position":{"x":1,"y":0,"z":0}}]}`))
	if err != nil || len(m.Players) != 1 || m.Players[0].Position.Vec()[0] != 1 {
		t.Fatalf("init decode: %+v %v", m, err)
	}
}

func TestSchemaDescribesBothDirections(t *testing.T) {
	b, err := json.Marshal(Schema())
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{`"playerId"`, `"position"`, `"players"`} {
		if !strings.Contains(string(b), field) {
			t.Fatalf("schema missing %s: %s", field, b)
		}
	}
}
