package utils

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// HealthStatus is the latest snapshot of the collaborators the console depends on.
type HealthStatus struct {
	API       bool      `json:"api"`
	Redis     []bool    `json:"redis"`
	CheckedAt time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	healthMu      sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	healthMu.RLock()
	defer healthMu.RUnlock()
	return currentHealth
}

// CheckHealth pings every Redis client and issues a HEAD against the API base URL.
// Any HTTP answer counts as reachable; only transport failures mark the API down.
func CheckHealth(ctx context.Context, httpClient *http.Client, apiBaseURL string, redisClients []*redis.Client) HealthStatus {
	redisHealth := make([]bool, 0, len(redisClients))
	for _, client := range redisClients {
		if client == nil {
			redisHealth = append(redisHealth, false)
			continue
		}
		redisHealth = append(redisHealth, client.Ping(ctx).Err() == nil)
	}

	apiHealthy := false
	if req, err := http.NewRequestWithContext(ctx, http.MethodHead, apiBaseURL, nil); err == nil {
		if resp, err := httpClient.Do(req); err == nil {
			resp.Body.Close()
			apiHealthy = true
		}
	}

	status := HealthStatus{API: apiHealthy, Redis: redisHealth, CheckedAt: time.Now()}
	healthMu.Lock()
	currentHealth = status
	healthMu.Unlock()
	return status
}

// StartHealthMonitor refreshes the health snapshot every interval until ctx is done.
func StartHealthMonitor(ctx context.Context, interval time.Duration, apiBaseURL string, redisClients []*redis.Client) {
	httpClient := &http.Client{Timeout: 5 * time.Second}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		CheckHealth(ctx, httpClient, apiBaseURL, redisClients)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				status := CheckHealth(ctx, httpClient, apiBaseURL, redisClients)
				if !status.API {
					GetLogger().Warn("Upstream API unreachable", zap.String("url", apiBaseURL))
				}
			}
		}
	}()
}
