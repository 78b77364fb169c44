package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"plaza/server"
)

// Plaza 入口：启动 HTTP + WebSocket 服务，接好 Redis 与档案服务
func main() {
	var addr string
	flag.StringVar(&addr, "addr", ":8080", "server listen address, e.g. :8080")
	flag.Parse()
	// 使用第三方 zap 日志库写入 app.log（带滚动）
	if err := server.InitLogger("app.log"); err != nil {
		panic(err)
	}
	defer server.SyncLogger()

	cfg := server.LoadConfig()
	if cfg.JWTSecret == "" {
		server.Log.Fatal("JWT_SECRET_KEY is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	store := server.NewRedisStore(rdb)
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		server.Log.Fatalf("redis unreachable at %s: %v", cfg.RedisAddr, err)
	}

	profiles := server.NewHTTPProfileClient(cfg.ProfileBaseURL)
	gw := server.NewGateway(cfg, store, profiles)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWS)
	// 管理与监控接口
	mux.HandleFunc("/admin/config", gw.HandleAdminConfig)
	mux.HandleFunc("/metrics", gw.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		server.Log.Infof("Plaza listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			server.Log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	server.Log.Info("Shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
}
