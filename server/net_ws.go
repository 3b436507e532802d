package server

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"quickarena/proto"
)

var sessionSeq uint64

// Session 一条 WebSocket 连接；发送走有界队列，由独立写协程写出
type Session struct {
	ID     uint64
	Remote string

	ws   *websocket.Conn
	cfg  Config
	send chan []byte
	done chan struct{}
	once sync.Once

	// 以下字段只在房间 Tick 协程中读写
	playerID PlayerID
	assigned PlayerID
}

// NewSession ws 可以为 nil（测试中直接读取发送队列）
func NewSession(ws *websocket.Conn, cfg Config) *Session {
	s := &Session{
		ID:   atomic.AddUint64(&sessionSeq, 1),
		ws:   ws,
		cfg:  cfg,
		send: make(chan []byte, cfg.SendQueue),
		done: make(chan struct{}),
	}
	if ws != nil {
		s.Remote = ws.RemoteAddr().String()
	}
	return s
}

// PlayerID 已绑定的玩家 ID（仅供 Tick 协程与测试使用）
func (s *Session) PlayerID() PlayerID { return s.playerID }

// Enqueue 非阻塞入队；队列满或已关闭时返回 false
func (s *Session) Enqueue(b []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- b:
		return true
	default:
		return false
	}
}

// Close 幂等关闭；写协程随之退出，读协程因连接关闭而返回
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.ws != nil {
			_ = s.ws.Close()
		}
	})
}

func (s *Session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done 连接关闭后可读
func (s *Session) Done() <-chan struct{} { return s.done }

// writePump 独立协程，负责从 send 队列写出到 WS，并定期 ping
func (s *Session) writePump() {
	ticker := time.NewTicker(s.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		s.Close()
	}()
	for {
		select {
		case <-s.done:
			_ = s.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.cfg.WriteWait))
			return
		case msg := <-s.send:
			_ = s.ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
			if err := s.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				Log.Debugw("write failed", "session", s.ID, "err", err)
				return
			}
		case <-ticker.C:
			if err := s.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteWait)); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端消息，解析后投递到房间；退出时通知房间移除该连接
func (s *Session) readPump(room *Room) {
	defer s.Close()
	defer room.Leave(s)

	s.ws.SetReadLimit(s.cfg.MaxMessageBytes)
	// 未完成 init 的连接只能存活 InitTimeout
	_ = s.ws.SetReadDeadline(time.Now().Add(minDuration(s.cfg.InitTimeout, s.cfg.PongWait)))
	// 以读协程自己收到的 init 为准，pong 回调也在读协程内执行
	initSeen := false
	s.ws.SetPongHandler(func(string) error {
		if initSeen {
			return s.ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
		}
		return nil
	})

	for {
		_, payload, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				Log.Infow("connection lost", "session", s.ID, "remote", s.Remote, "err", err)
			}
			var ne interface{ Timeout() bool }
			if errors.As(err, &ne) && ne.Timeout() && !initSeen {
				Log.Infow("init timeout", "session", s.ID, "remote", s.Remote)
			}
			return
		}
		if initSeen {
			_ = s.ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
		}
		msg, err := proto.DecodeClient(payload)
		switch {
		case errors.Is(err, proto.ErrUnknownType):
			room.metrics.IncUnknown()
			Log.Debugw("ignored message", "session", s.ID, "err", err)
			continue
		case err != nil:
			room.metrics.IncMalformed()
			Log.Warnw("malformed message dropped", "session", s.ID, "remote", s.Remote, "err", err)
			continue
		}
		if msg.Type == proto.TypeInit && !initSeen {
			initSeen = true
			_ = s.ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
		}
		room.OnMessage(s, msg)
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func newUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// 浏览器客户端可能经由代理域名接入，放行所有来源
			return true
		},
	}
}

// HandleWS WebSocket 接入：/ws?room=room-1
func HandleWS(rm *RoomManager) http.HandlerFunc {
	upgrader := newUpgrader()
	return func(w http.ResponseWriter, r *http.Request) {
		roomID := r.URL.Query().Get("room")
		if roomID == "" {
			roomID = DefaultRoom
		}

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			Log.Warnw("upgrade error", "remote", r.RemoteAddr, "err", err)
			return
		}

		room := rm.GetOrCreateRoom(roomID)
		s := NewSession(ws, rm.cfg)
		if !room.Join(s) {
			s.Close()
			return
		}
		Log.Infow("connection accepted", "room", roomID, "session", s.ID, "remote", s.Remote)

		go s.writePump()
		go s.readPump(room)
	}
}
