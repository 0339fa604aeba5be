package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	appcfg "claimgrid/internal/config"
	"claimgrid/internal/game"
	"claimgrid/internal/gateway"
	"claimgrid/internal/matchmaking"
	"claimgrid/internal/obslog"
	"claimgrid/internal/store"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	// Without REDIS_URL / DATABASE_URL the process runs on in-memory stores;
	// fine for development, no recovery across restarts.
	mem := store.NewMemoryStore()

	var live game.LiveStore = mem
	if cfg.RedisURL != "" {
		rs, err := store.NewRedisLiveStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
		defer rs.Close()
		live = rs
	} else {
		obslog.L().Warn("live_store_memory_fallback")
	}

	var results game.ResultStore = mem
	if cfg.DatabaseURL != "" {
		ps, err := store.NewPostgresResultStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database init error: %v", err)
		}
		defer ps.Close()
		results = ps
	} else {
		obslog.L().Warn("result_store_memory_fallback")
	}

	mgr := game.NewManager(live, results, cfg.GracePeriod())
	defer mgr.Close()
	queue := matchmaking.New(mgr)
	gw := gateway.New(mgr, queue)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.Handler)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		obslog.L().Info("ws_listen", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obslog.L().Fatal("ws_listen_error", zap.Error(err))
		}
	}()

	go serveHealth(cfg.HealthAddr, mgr, queue)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(sctx)
	obslog.L().Info("server_stop")
}

// serveHealth exposes the operational surface on its own listener: /healthz
// for liveness, /stats for the active-session and queue gauges.
func serveHealth(addr string, mgr *game.Manager, queue *matchmaking.Queue) {
	handler := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/healthz":
			ctx.SetStatusCode(fasthttp.StatusOK)
			ctx.SetBodyString("ok")
		case "/stats":
			ctx.SetContentType("application/json")
			raw, _ := json.Marshal(map[string]int{
				"activeSessions": mgr.ActiveCount(),
				"waitingPlayers": queue.Len(),
			})
			ctx.SetBody(raw)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}
	obslog.L().Info("health_listen", zap.String("addr", addr))
	if err := fasthttp.ListenAndServe(addr, handler); err != nil {
		obslog.L().Error("health_listen_error", zap.Error(err))
	}
}
