package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrClosed 连接已关闭后继续发送
var ErrClosed = errors.New("client: transport closed")

// DialConfig 客户端连接参数
type DialConfig struct {
	URL        string
	SendQueue  int // 发送队列满时丢弃最旧的一帧
	InboxSize  int
	WriteWait  time.Duration
	Logger     *zap.SugaredLogger
	Dialer     *websocket.Dialer
	MaxMessage int64
}

func (c *DialConfig) defaults() {
	if c.SendQueue <= 0 {
		c.SendQueue = 32
	}
	if c.InboxSize <= 0 {
		c.InboxSize = 256
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop().Sugar()
	}
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
	if c.MaxMessage <= 0 {
		c.MaxMessage = 1 << 20
	}
}

// WSTransport 基于 gorilla/websocket 的 Transport。
// 读协程只负责把帧放进收件箱；写协程串行发送队列中的帧。
type WSTransport struct {
	conn     *websocket.Conn
	cfg      DialConfig
	log      *zap.SugaredLogger
	out      chan []byte
	in       chan []byte
	done     chan struct{}
	once     sync.Once
	mu       sync.Mutex // 保护出队丢弃与入队的组合操作
	dropped  atomic.Int64
	closeErr error
}

// Dial 建立连接并启动读写协程
func Dial(ctx context.Context, cfg DialConfig) (*WSTransport, error) {
	cfg.defaults()
	conn, _, err := cfg.Dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}
	conn.SetReadLimit(cfg.MaxMessage)
	t := &WSTransport{
		conn: conn,
		cfg:  cfg,
		log:  cfg.Logger,
		out:  make(chan []byte, cfg.SendQueue),
		in:   make(chan []byte, cfg.InboxSize),
		done: make(chan struct{}),
	}
	go t.readLoop()
	go t.writeLoop()
	return t, nil
}

// Send 即发即忘；队列满时丢弃最旧的一帧再入队
func (t *WSTransport) Send(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for {
		select {
		case <-t.done:
			return ErrClosed
		default:
		}
		select {
		case t.out <- frame:
			return nil
		default:
		}
		select {
		case <-t.out:
			t.dropped.Add(1)
		default:
		}
	}
}

func (t *WSTransport) Messages() <-chan []byte { return t.in }

// Dropped 因发送队列满被丢弃的帧数
func (t *WSTransport) Dropped() int64 { return t.dropped.Load() }

func (t *WSTransport) Done() <-chan struct{} { return t.done }

// Close 幂等；返回关闭帧与底层连接关闭的合并错误
func (t *WSTransport) Close() error {
	t.once.Do(func() {
		close(t.done)
		deadline := time.Now().Add(t.cfg.WriteWait)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		werr := t.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		if errors.Is(werr, websocket.ErrCloseSent) {
			werr = nil
		}
		t.closeErr = multierr.Combine(werr, t.conn.Close())
	})
	return t.closeErr
}

func (t *WSTransport) readLoop() {
	defer close(t.in)
	defer t.Close()
	for {
		_, payload, err := t.conn.ReadMessage()
		if err != nil {
			select {
			case <-t.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					t.log.Warnf("relay read error: %v", err)
				} else {
					t.log.Infof("relay connection closed: %v", err)
				}
			}
			return
		}
		// 收件箱满时阻塞读协程，由 TCP 反压，不丢弃生命周期消息
		select {
		case t.in <- payload:
		case <-t.done:
			return
		}
	}
}

func (t *WSTransport) writeLoop() {
	for {
		select {
		case <-t.done:
			return
		case frame := <-t.out:
			_ = t.conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteWait))
			if err := t.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				t.log.Warnf("relay write error: %v", err)
				_ = t.Close()
				return
			}
		}
	}
}
