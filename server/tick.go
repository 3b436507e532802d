package server

import "time"

// Tick 单帧：处理入站事件 → 广播位置变化
func (r *Room) Tick() {
	start := time.Now()
	r.BeginTick()
	r.ProcessInputs()
	r.FlushUpdates()
	r.metrics.AddTick(time.Since(start).Nanoseconds())
}

// StartTicker 启动房间的 Tick 循环（单协程推进，所有状态修改都在这里发生）
func (r *Room) StartTicker() {
	if r.tickerStarted {
		return
	}
	r.tickerStarted = true
	go func() {
		ticker := time.NewTicker(r.cfg.TickInterval())
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				r.shutdown()
				return
			case <-ticker.C:
				r.Tick()
			}
		}
	}()
}

// Stop 停止 Tick 循环并断开所有连接
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Room) shutdown() {
	for _, s := range append([]*Session(nil), r.sessions...) {
		s.Close()
	}
	r.sessions = nil
	r.log.Infow("room stopped", "ticks", r.tickSeq)
}
