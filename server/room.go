package server

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quickarena/proto"
)

// DefaultRoom 未指定房间时使用的房间 ID
const DefaultRoom = "room-1"

// Settings 可在运行期通过 /admin/config 调整的房间参数
type Settings struct {
	MaxUpdatesPerTick int     `json:"maxUpdatesPerTick"`
	SimulateDropProb  float64 `json:"simulateDropProb"` // 调试用：按概率丢弃 update_player 广播
}

// Room 中继房间：注册表与连接集合只在 Tick 协程中修改。
// 入站事件排队，每个 Tick 统一处理，随后广播本帧的位置变化。
type Room struct {
	ID string

	cfg      Config
	log      *zap.SugaredLogger
	registry *Registry
	metrics  *RoomMetrics

	sessions []*Session            // 按加入顺序
	owners   map[PlayerID]*Session // 已绑定的 playerId -> 连接

	// 本帧标记为需要广播的玩家，按首次标记顺序
	dirty    []PlayerID
	dirtySet map[PlayerID]bool
	updates  map[PlayerID]int

	inbox chan roomEvent
	stop  chan struct{}

	settingsMu sync.RWMutex
	settings   Settings

	tickSeq       int64
	tickerStarted bool
	stopOnce      sync.Once

	newID func() string
	rng   *rand.Rand
	now   func() time.Time
}

// NewRoom 创建房间，初始化数据结构（不启动 Tick）
func NewRoom(id string, cfg Config) *Room {
	return &Room{
		ID:       id,
		cfg:      cfg,
		log:      Log.With("room", id),
		registry: NewRegistry(),
		metrics:  &RoomMetrics{},
		owners:   make(map[PlayerID]*Session),
		dirtySet: make(map[PlayerID]bool),
		updates:  make(map[PlayerID]int),
		inbox:    make(chan roomEvent, cfg.InboxSize),
		stop:     make(chan struct{}),
		settings: Settings{MaxUpdatesPerTick: cfg.MaxUpdatesPerTick},
		newID:    func() string { return uuid.NewString() },
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

func (r *Room) Metrics() *RoomMetrics { return r.metrics }

func (r *Room) Settings() Settings {
	r.settingsMu.RLock()
	defer r.settingsMu.RUnlock()
	return r.settings
}

func (r *Room) SetSettings(s Settings) {
	r.settingsMu.Lock()
	r.settings = s
	r.settingsMu.Unlock()
}

// Join 登记新连接（此时还没有玩家身份）；房间已停止时返回 false
func (r *Room) Join(s *Session) bool {
	select {
	case r.inbox <- roomEvent{kind: evJoin, session: s}:
		return true
	case <-r.stop:
		return false
	}
}

// Leave 请求在 Tick 中移除连接；必须送达，因此阻塞直到入队或房间停止
func (r *Room) Leave(s *Session) {
	select {
	case r.inbox <- roomEvent{kind: evLeave, session: s}:
	case <-r.stop:
	}
}

// OnMessage 入站消息（不立即改变状态），队列满时丢弃
func (r *Room) OnMessage(s *Session, msg proto.ClientMessage) {
	select {
	case r.inbox <- roomEvent{kind: evMessage, session: s, msg: msg}:
	default:
		r.metrics.IncChanFullDiscarded()
	}
}

// BeginTick 同一 Tick 时间线：重置帧内计数
func (r *Room) BeginTick() {
	r.tickSeq++
	for id := range r.updates {
		delete(r.updates, id)
	}
}

// ProcessInputs 处理当前已排队的事件（非阻塞 drain，单帧最多处理一个队列容量）
func (r *Room) ProcessInputs() {
	for i := 0; i < cap(r.inbox); i++ {
		select {
		case ev := <-r.inbox:
			switch ev.kind {
			case evJoin:
				r.handleJoin(ev.session)
			case evLeave:
				r.handleLeave(ev.session)
			case evMessage:
				r.handleMessage(ev.session, ev.msg)
			}
		default:
			return
		}
	}
}

// FlushUpdates 每个本帧有更新的玩家广播一次最新位置（不发回给本人）
func (r *Room) FlushUpdates() {
	drop := r.Settings().SimulateDropProb
	pending := r.dirty
	r.dirty = nil
	for _, id := range pending {
		delete(r.dirtySet, id)
	}
	for _, id := range pending {
		rec, ok := r.registry.Get(id)
		if !ok {
			continue
		}
		if drop > 0 && r.rng.Float64() < drop {
			r.metrics.IncDropsSimulated()
			continue
		}
		r.broadcast(proto.UpdatePlayer(rec.Wire()), r.owners[id])
	}
	r.metrics.SetPopulation(len(r.sessions), r.registry.Len())
}

func (r *Room) handleJoin(s *Session) {
	r.sessions = append(r.sessions, s)
	if r.cfg.IDPolicy == IDPolicyServer {
		s.assigned = PlayerID(r.newID())
		r.deliverOne(s, proto.Welcome(string(s.assigned)))
	}
	r.log.Debugw("session joined", "session", s.ID, "assigned", s.assigned)
}

func (r *Room) handleMessage(s *Session, msg proto.ClientMessage) {
	if !r.hasSession(s) {
		// 已被移除（慢连接、被抢占）的连接残留在队列里的消息
		return
	}
	switch msg.Type {
	case proto.TypeInit:
		r.handleInit(s, msg)
	case proto.TypeUpdatePlayer:
		r.handleUpdate(s, msg)
	default:
		r.metrics.IncUnknown()
	}
}

func (r *Room) handleInit(s *Session, msg proto.ClientMessage) {
	id := PlayerID(msg.PlayerID)
	if r.cfg.IDPolicy == IDPolicyServer {
		if id != "" && id != s.assigned {
			r.log.Debugw("client-supplied id ignored", "session", s.ID, "claimed", id, "assigned", s.assigned)
		}
		id = s.assigned
	}
	if id == "" {
		r.metrics.IncMalformed()
		r.log.Warnw("init without playerId dropped", "session", s.ID)
		return
	}
	if s.playerID != "" && s.playerID != id {
		r.metrics.IncViolation()
		r.log.Warnw("rebind refused", "session", s.ID, "bound", s.playerID, "claimed", id)
		return
	}
	if prev, ok := r.owners[id]; ok && prev != s {
		// 后来者接管：旧连接解绑并断开，记录保留给新连接
		r.metrics.IncDuplicateClaim()
		r.log.Warnw("playerId claimed by another connection, evicting previous",
			"player", id, "previous", prev.ID, "session", s.ID)
		prev.playerID = ""
		r.dropSession(prev)
	}

	s.playerID = id
	r.owners[id] = s
	created := r.registry.Upsert(id, *msg.Position, r.now())
	r.clearDirty(id)
	r.metrics.IncAccepted()

	rec, _ := r.registry.Get(id)
	r.deliverOne(s, proto.InitSnapshot(r.registry.Wire()))
	r.broadcast(proto.InitPlayer(rec.Wire()), s)
	r.log.Infow("player init", "player", id, "session", s.ID, "created", created, "players", r.registry.Len())
}

func (r *Room) handleUpdate(s *Session, msg proto.ClientMessage) {
	id := s.playerID
	if id == "" {
		r.metrics.IncViolation()
		r.log.Debugw("update before init dropped", "session", s.ID)
		return
	}
	if msg.PlayerID != "" && PlayerID(msg.PlayerID) != id {
		r.log.Debugw("update playerId mismatch, using bound id", "session", s.ID, "bound", id, "claimed", msg.PlayerID)
	}
	r.updates[id]++
	if r.updates[id] > r.Settings().MaxUpdatesPerTick {
		r.metrics.IncRateLimited()
		return
	}
	r.registry.Update(id, *msg.Position, r.now())
	r.markDirty(id)
	r.metrics.IncAccepted()
}

func (r *Room) handleLeave(s *Session) {
	if !r.removeSession(s) {
		return
	}
	s.Close()
	id := s.playerID
	if id == "" || r.owners[id] != s {
		r.log.Debugw("session left", "session", s.ID)
		return
	}
	delete(r.owners, id)
	r.registry.Remove(id)
	r.clearDirty(id)
	r.broadcast(proto.RemovePlayer(string(id)), nil)
	r.log.Infow("player left", "player", id, "session", s.ID, "players", r.registry.Len())
}

// dropSession 房间主动断开连接：移出集合并关闭，不广播
func (r *Room) dropSession(s *Session) {
	r.removeSession(s)
	s.Close()
}

func (r *Room) hasSession(s *Session) bool {
	for _, v := range r.sessions {
		if v == s {
			return true
		}
	}
	return false
}

func (r *Room) removeSession(s *Session) bool {
	for i, v := range r.sessions {
		if v == s {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Room) markDirty(id PlayerID) {
	if r.dirtySet[id] {
		return
	}
	r.dirtySet[id] = true
	r.dirty = append(r.dirty, id)
}

func (r *Room) clearDirty(id PlayerID) {
	if !r.dirtySet[id] {
		return
	}
	delete(r.dirtySet, id)
	for i, v := range r.dirty {
		if v == id {
			r.dirty = append(r.dirty[:i], r.dirty[i+1:]...)
			return
		}
	}
}

// broadcast 对连接集合的快照逐个入队；发送队列满的连接在遍历结束后统一断开，
// 避免在广播途中插入 remove_player 打乱各连接看到的顺序
func (r *Room) broadcast(msg proto.ServerMessage, except *Session) {
	b, err := proto.EncodeServer(msg)
	if err != nil {
		r.log.Errorw("encode broadcast", "type", msg.Type, "err", err)
		return
	}
	r.metrics.IncBroadcast()
	targets := append([]*Session(nil), r.sessions...)
	var slow []*Session
	for _, s := range targets {
		if s == except {
			continue
		}
		if !s.Enqueue(b) {
			slow = append(slow, s)
		}
	}
	for _, s := range slow {
		r.evictSlow(s)
	}
}

func (r *Room) deliverOne(s *Session, msg proto.ServerMessage) {
	b, err := proto.EncodeServer(msg)
	if err != nil {
		r.log.Errorw("encode message", "type", msg.Type, "err", err)
		return
	}
	if !s.Enqueue(b) {
		r.evictSlow(s)
	}
}

// evictSlow 入队失败（队列满或连接已断）：按正常离开处理，保证 remove_player 不会丢
func (r *Room) evictSlow(s *Session) {
	if !r.hasSession(s) {
		return
	}
	if !s.closed() {
		r.metrics.IncSlowConsumer()
		r.log.Warnw("slow consumer disconnected", "session", s.ID, "player", s.playerID)
	}
	r.handleLeave(s)
}

// Players 当前注册表快照（仅 Tick 协程或测试调用）
func (r *Room) Players() []PlayerRecord { return r.registry.Snapshot() }
