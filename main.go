package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"quickarena/server"
)

// QuickArena 中继入口：启动 HTTP + WebSocket 服务，并初始化房间管理器
func main() {
	cfg := server.DefaultConfig()
	var (
		addr      string
		logFile   string
		logLevel  string
		idPolicy  string
		staticDir string
	)
	flag.StringVar(&addr, "addr", ":8080", "server listen address, e.g. :8080")
	flag.StringVar(&logFile, "log", "relay.log", "log file path (rotated)")
	flag.StringVar(&logLevel, "log-level", "info", "debug|info|warn|error")
	flag.StringVar(&idPolicy, "id-policy", string(cfg.IDPolicy), "who assigns player ids: client|server")
	flag.StringVar(&staticDir, "static", "", "optional directory served at /")
	flag.IntVar(&cfg.TickRate, "tick-rate", cfg.TickRate, "room ticks per second")
	flag.DurationVar(&cfg.InitTimeout, "init-timeout", cfg.InitTimeout, "close connections that do not send init in time")
	flag.IntVar(&cfg.MaxUpdatesPerTick, "max-updates", cfg.MaxUpdatesPerTick, "accepted position updates per player per tick")
	flag.Parse()

	if err := server.InitLogger(logFile, logLevel); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	policy, err := server.ParseIDPolicy(idPolicy)
	if err != nil {
		server.Log.Fatalf("config: %v", err)
	}
	cfg.IDPolicy = policy
	if err := cfg.Validate(); err != nil {
		server.Log.Fatalf("config: %v", err)
	}

	rm := server.NewRoomManager(cfg)
	// 先预创建一个默认房间，便于快速试跑
	_ = rm.GetOrCreateRoom(server.DefaultRoom)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS(rm))
	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	// 管理与监控接口
	mux.HandleFunc("/admin/config", server.HandleAdminConfig(rm))
	mux.HandleFunc("/admin/rooms", server.HandleRooms(rm))
	mux.HandleFunc("/metrics", server.HandleMetrics(rm))
	mux.HandleFunc("/protocol/schema", server.HandleSchema())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		server.Log.Infof("QuickArena relay listening on %s (id policy %s, %d TPS)", addr, cfg.IDPolicy, cfg.TickRate)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	// 优雅退出（Ctrl+C）
	g.Go(func() error {
		<-gctx.Done()
		server.Log.Info("Shutting down...")
		rm.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		server.Log.Errorf("server: %v", err)
	}
}
