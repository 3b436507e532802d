package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	TickCount         int64 // 统计的 Tick 次数
	TotalTickNs       int64 // Tick 累计耗时（纳秒）
	MessagesAccepted  int64 // 被处理的 init/update 消息数
	Malformed         int64 // 非 JSON 或缺字段被丢弃的消息数
	UnknownIgnored    int64 // 未识别类型被忽略的消息数
	Violations        int64 // 未 init 先 update、改绑 ID 等协议违规
	RateLimited       int64 // 因同帧限流被拒绝的更新数
	DropsSimulated    int64 // 因模拟丢包未广播的更新数
	ChanFullDiscarded int64 // 因入站队列满被丢弃的消息数
	SlowConsumers     int64 // 因发送队列满被断开的连接数
	DuplicateClaims   int64 // 同一 playerId 被另一连接抢占的次数
	Broadcasts        int64 // 发出的广播条数（按消息计，不按接收者）

	Sessions int64 // 当前连接数
	Players  int64 // 当前已 init 的玩家数
}

func (m *RoomMetrics) IncAccepted()          { atomic.AddInt64(&m.MessagesAccepted, 1) }
func (m *RoomMetrics) IncMalformed()         { atomic.AddInt64(&m.Malformed, 1) }
func (m *RoomMetrics) IncUnknown()           { atomic.AddInt64(&m.UnknownIgnored, 1) }
func (m *RoomMetrics) IncViolation()         { atomic.AddInt64(&m.Violations, 1) }
func (m *RoomMetrics) IncRateLimited()       { atomic.AddInt64(&m.RateLimited, 1) }
func (m *RoomMetrics) IncDropsSimulated()    { atomic.AddInt64(&m.DropsSimulated, 1) }
func (m *RoomMetrics) IncChanFullDiscarded() { atomic.AddInt64(&m.ChanFullDiscarded, 1) }
func (m *RoomMetrics) IncSlowConsumer()      { atomic.AddInt64(&m.SlowConsumers, 1) }
func (m *RoomMetrics) IncDuplicateClaim()    { atomic.AddInt64(&m.DuplicateClaims, 1) }
func (m *RoomMetrics) IncBroadcast()         { atomic.AddInt64(&m.Broadcasts, 1) }
func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// SetPopulation 由 Tick 协程在每帧结束时写入
func (m *RoomMetrics) SetPopulation(sessions, players int) {
	atomic.StoreInt64(&m.Sessions, int64(sessions))
	atomic.StoreInt64(&m.Players, int64(players))
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":          tick,
		"avg_tick_ms":         avgMs,
		"messages_accepted":   atomic.LoadInt64(&m.MessagesAccepted),
		"malformed":           atomic.LoadInt64(&m.Malformed),
		"unknown_ignored":     atomic.LoadInt64(&m.UnknownIgnored),
		"violations":          atomic.LoadInt64(&m.Violations),
		"rate_limited":        atomic.LoadInt64(&m.RateLimited),
		"drops_simulated":     atomic.LoadInt64(&m.DropsSimulated),
		"chan_full_discarded": atomic.LoadInt64(&m.ChanFullDiscarded),
		"slow_consumers":      atomic.LoadInt64(&m.SlowConsumers),
		"duplicate_claims":    atomic.LoadInt64(&m.DuplicateClaims),
		"broadcasts":          atomic.LoadInt64(&m.Broadcasts),
		"sessions":            atomic.LoadInt64(&m.Sessions),
		"players":             atomic.LoadInt64(&m.Players),
	}
}
