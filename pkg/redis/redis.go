package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"garage-backend/internal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Client struct {
	client      *redis.Client
	config      config.RedisConfig
	logger      *zap.Logger
	mu          sync.RWMutex
	isConnected bool
}

type HealthStatus struct {
	IsConnected    bool          `json:"isConnected"`
	LastPing       time.Time     `json:"lastPing"`
	ResponseTime   time.Duration `json:"responseTime"`
	ConnectionInfo string        `json:"connectionInfo"`
	Error          string        `json:"error,omitempty"`
}

// NewClient creates a pooled Redis client and checks the connection once.
// A failed check is logged, not returned; commands keep retrying on their own.
func NewClient(cfg config.RedisConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opt, err := options(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		client: redis.NewClient(opt),
		config: cfg,
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis connection test failed", zap.String("addr", opt.Addr), zap.Error(err))
	} else {
		c.setConnected(true)
		logger.Info("redis connected", zap.String("addr", opt.Addr))
	}
	return c, nil
}

func options(cfg config.RedisConfig) (*redis.Options, error) {
	var opt *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opt = parsed
	} else {
		opt = &redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	if cfg.PoolSize > 0 {
		opt.PoolSize = cfg.PoolSize
	}
	opt.MinIdleConns = cfg.MinIdleConns
	if cfg.MaxRetries != 0 {
		opt.MaxRetries = cfg.MaxRetries
	}
	if cfg.DialTimeout > 0 {
		opt.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opt.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opt.WriteTimeout = cfg.WriteTimeout
	}
	return opt, nil
}

// GetClient returns the underlying go-redis client.
func (c *Client) GetClient() *redis.Client {
	return c.client
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *Client) setConnected(ok bool) {
	c.mu.Lock()
	c.isConnected = ok
	c.mu.Unlock()
}

// HealthCheck pings Redis and records the outcome.
func (c *Client) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{ConnectionInfo: c.client.Options().Addr}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	err := c.client.Ping(ctx).Err()
	status.ResponseTime = time.Since(start)
	status.LastPing = time.Now()

	if err != nil {
		status.Error = err.Error()
		c.setConnected(false)
		return status
	}
	status.IsConnected = true
	c.setConnected(true)
	return status
}

// GetConnectionStats returns connection pool statistics.
func (c *Client) GetConnectionStats() map[string]interface{} {
	stats := c.client.PoolStats()
	return map[string]interface{}{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"totalConns":  stats.TotalConns,
		"idleConns":   stats.IdleConns,
		"staleConns":  stats.StaleConns,
		"isConnected": c.IsConnected(),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}
