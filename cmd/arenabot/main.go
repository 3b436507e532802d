package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"quickarena/client"
	"quickarena/server"
	"quickarena/sim"
)

// arenabot 无界面的机器人客户端：连上中继后随机游走、偶尔开火
func main() {
	var (
		url      string
		id       string
		fps      int
		duration time.Duration
		seed     int64
		verbose  bool
	)
	flag.StringVar(&url, "url", "ws://localhost:8080/ws?room=room-1", "relay websocket url")
	flag.StringVar(&id, "id", "", "player id (random if empty)")
	flag.IntVar(&fps, "fps", 30, "frames per second")
	flag.DurationVar(&duration, "duration", 0, "stop after this long (0 = until interrupted)")
	flag.Int64Var(&seed, "seed", time.Now().UnixNano(), "random walk seed")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.Parse()

	level := "info"
	if verbose {
		level = "debug"
	}
	log, err := server.NewLogger("bot", zapcore.Lock(os.Stderr), level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if id == "" {
		id = "bot-" + uuid.NewString()[:8]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	tr, err := client.Dial(dialCtx, client.DialConfig{URL: url, Logger: log})
	cancel()
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer func() {
		if err := tr.Close(); err != nil {
			log.Warnf("close: %v", err)
		}
	}()

	cfg := client.DefaultGameConfig(id)
	cfg.Logger = log
	rng := rand.New(rand.NewSource(seed))
	cfg.Spawn = mgl64.Vec3{rng.Float64()*6 - 3, 2, rng.Float64()*6 - 3}
	game := client.NewGame(cfg, client.DefaultArena(), &countingRenderer{log: log}, tr)
	if err := game.Start(); err != nil {
		log.Fatalf("start: %v", err)
	}
	log.Infof("bot %s connected to %s", id, url)

	walker := newRandomWalk(rng)
	dt := 1 / float64(fps)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	report := time.NewTicker(5 * time.Second)
	defer report.Stop()

	sent := 0
	for {
		select {
		case <-ctx.Done():
			log.Infof("stopping, %d updates sent, %d dropped", sent, tr.Dropped())
			return
		case <-report.C:
			log.Infow("status", "id", game.PlayerID(), "pos", game.Self.Position,
				"peers", game.Shadows.IDs(), "projectiles", game.Projectiles.Len())
		case <-ticker.C:
			walker.advance()
			st := game.Frame(dt, walker)
			if st.Sent {
				sent++
			}
			if game.Disconnected() {
				log.Warn("relay closed the connection")
				return
			}
		}
	}
}

// randomWalk 每隔一段时间换一组按键
type randomWalk struct {
	rng    *rand.Rand
	keys   sim.KeySet
	turn   float64
	frames int
}

var walkKeys = []string{"KeyW", "KeyA", "KeyS", "KeyD"}

func newRandomWalk(rng *rand.Rand) *randomWalk {
	return &randomWalk{rng: rng, keys: sim.KeySet{}}
}

func (w *randomWalk) advance() {
	if w.frames > 0 {
		w.frames--
		// 开火只保持一帧
		delete(w.keys, "Mouse0")
		return
	}
	w.frames = 15 + w.rng.Intn(45)
	w.keys = sim.KeySet{walkKeys[w.rng.Intn(len(walkKeys))]: true}
	if w.rng.Intn(4) == 0 {
		w.keys["ShiftLeft"] = true
	}
	if w.rng.Intn(5) == 0 {
		w.keys["Space"] = true
	}
	if w.rng.Intn(3) == 0 {
		w.keys["Mouse0"] = true
	}
	w.turn = w.rng.Float64()*40 - 20
}

func (w *randomWalk) Held() sim.KeySet { return w.keys }

func (w *randomWalk) PointerDelta() (float64, float64) { return w.turn, 0 }

type countingRenderer struct {
	log    *zap.SugaredLogger
	bodies int
}

func (r *countingRenderer) AddBody(b *sim.Body) {
	r.bodies++
	if b.Category == sim.CategoryPlayer {
		r.log.Debugf("player %s appeared at %v", b.ID, b.Position)
	}
}

func (r *countingRenderer) RemoveBody(id string) {
	r.bodies--
	r.log.Debugf("body %s removed (%d left)", id, r.bodies)
}

func (r *countingRenderer) SetBodyPosition(*sim.Body) {}
