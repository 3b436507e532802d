package server

import (
	"encoding/json"
	"net/http"

	"quickarena/proto"
)

func roomParam(r *http.Request) string {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = DefaultRoom
	}
	return roomID
}

// HandleAdminConfig 提供房间配置的读取与更新（热更新基本规则）
// GET /admin/config?room=room-1  返回当前配置
// POST /admin/config?room=room-1 以 JSON 载荷更新部分字段
func HandleAdminConfig(rm *RoomManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := roomParam(r)
		room := rm.GetOrCreateRoom(roomID)

		type cfg struct {
			MaxUpdatesPerTick *int     `json:"maxUpdatesPerTick,omitempty"`
			SimulateDropProb  *float64 `json:"simulateDropProb,omitempty"`
		}

		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, room.Settings())
		case http.MethodPost:
			var body cfg
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
			cur := room.Settings()
			if body.MaxUpdatesPerTick != nil {
				if *body.MaxUpdatesPerTick <= 0 {
					http.Error(w, "maxUpdatesPerTick must be positive", http.StatusBadRequest)
					return
				}
				cur.MaxUpdatesPerTick = *body.MaxUpdatesPerTick
			}
			if body.SimulateDropProb != nil {
				if p := *body.SimulateDropProb; p < 0 || p > 1 {
					http.Error(w, "simulateDropProb must be within [0,1]", http.StatusBadRequest)
					return
				}
				cur.SimulateDropProb = *body.SimulateDropProb
			}
			room.SetSettings(cur)
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "settings": cur})
			Log.Infow("config updated", "room", roomID,
				"maxUpdatesPerTick", cur.MaxUpdatesPerTick, "simulateDropProb", cur.SimulateDropProb)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// HandleMetrics 输出指定房间的运行指标，房间不存在时返回 404
// GET /metrics?room=room-1
func HandleMetrics(rm *RoomManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := roomParam(r)
		room, ok := rm.Room(roomID)
		if !ok {
			http.Error(w, "unknown room", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"room":    roomID,
			"metrics": room.Metrics().Snapshot(),
		})
	}
}

// HandleRooms 列出已创建的房间
func HandleRooms(rm *RoomManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"rooms": rm.RoomIDs()})
	}
}

// HandleSchema 输出线上协议的 JSON Schema
func HandleSchema() http.HandlerFunc {
	schema := proto.Schema()
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, schema)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
