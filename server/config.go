package server

import (
	"os"
	"strconv"
	"time"
)

// 默认出生点：与前端地图中心保持一致
const (
	DefaultSpawnX = 800
	DefaultSpawnY = 488
)

// Config 服务运行配置：命令行只管监听地址，其余走环境变量（便于容器部署）
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string

	// 档案查询服务（外部协作方）根地址
	ProfileBaseURL string

	// 玩家信息 / 位置缓存 TTL（默认 30 分钟）
	InfoTTL time.Duration
	// 会话兜底 TTL（默认 2 小时）
	SessionTTL time.Duration

	// 每连接 MOVE 消息限速
	MoveRatePerSec float64
	MoveBurst      int
}

// LoadConfig 从环境变量读取配置，缺省取默认值
// JWT_SECRET_KEY 为必填项，由调用方判错
func LoadConfig() *Config {
	cfg := &Config{
		RedisAddr:      envString("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        envInt("REDIS_DB", 0),
		JWTSecret:      os.Getenv("JWT_SECRET_KEY"),
		ProfileBaseURL: envString("PROFILE_BASE_URL", "http://localhost:8081"),
		InfoTTL:        envDuration("PLAYER_INFO_TTL", 30*time.Minute),
		SessionTTL:     envDuration("SESSION_TTL", 2*time.Hour),
		MoveRatePerSec: envFloat("MOVE_RATE_PER_SEC", 30),
		MoveBurst:      envInt("MOVE_BURST", 60),
	}
	return cfg
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
