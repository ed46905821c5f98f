package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"marketline/pkg/bar"
	"marketline/pkg/logger"
)

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	Name        string        `mapstructure:"name"`
	MaxRequests uint32        `mapstructure:"max_requests"`  // 半开状态下的最大请求数
	Interval    time.Duration `mapstructure:"interval"`      // 统计窗口时间
	Timeout     time.Duration `mapstructure:"timeout"`       // 熔断器打开后的超时时间
	ReadyToTrip uint32        `mapstructure:"ready_to_trip"` // 触发熔断的连续失败次数
	Enabled     bool          `mapstructure:"enabled"`
}

// DefaultBreakerConfig 默认熔断器配置
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		Name:        "HistoryProvider",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: 5,
		Enabled:     true,
	}
}

// BreakerStats 熔断器统计信息
type BreakerStats struct {
	TotalRequests      int64     `json:"total_requests"`
	SuccessfulRequests int64     `json:"successful_requests"`
	FailedRequests     int64     `json:"failed_requests"`
	LastFailure        time.Time `json:"last_failure"`
}

// BreakerProvider 为 HistoryProvider 增加熔断保护的装饰器
type BreakerProvider struct {
	inner  HistoryProvider
	cb     *gobreaker.CircuitBreaker
	config *BreakerConfig

	mu    sync.RWMutex
	stats BreakerStats
}

// NewBreakerProvider 创建熔断器装饰器
func NewBreakerProvider(inner HistoryProvider, config *BreakerConfig) *BreakerProvider {
	if config == nil {
		config = DefaultBreakerConfig()
	}

	log := logger.WithComponent("provider.breaker")
	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.ReadyToTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnf("熔断器 %s 状态从 %v 变更为 %v", name, from, to)
		},
	}

	return &BreakerProvider{
		inner:  inner,
		cb:     gobreaker.NewCircuitBreaker(settings),
		config: config,
	}
}

// Name 返回装饰器名称
func (b *BreakerProvider) Name() string {
	return fmt.Sprintf("Breaker(%s)", b.inner.Name())
}

// FetchAllHistory 带熔断保护的全量历史获取
func (b *BreakerProvider) FetchAllHistory(ctx context.Context, symbol string) (bar.Series, error) {
	return b.execute(func() (bar.Series, error) {
		return b.inner.FetchAllHistory(ctx, symbol)
	})
}

// FetchLatest 带熔断保护的分钟数据获取
func (b *BreakerProvider) FetchLatest(ctx context.Context, symbol string) (bar.Series, error) {
	return b.execute(func() (bar.Series, error) {
		return b.inner.FetchLatest(ctx, symbol)
	})
}

func (b *BreakerProvider) execute(fn func() (bar.Series, error)) (bar.Series, error) {
	if !b.config.Enabled {
		return fn()
	}

	b.mu.Lock()
	b.stats.TotalRequests++
	b.mu.Unlock()

	result, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	b.handleResult(err)

	if err != nil {
		return nil, err
	}

	s, ok := result.(bar.Series)
	if !ok {
		err := fmt.Errorf("熔断器返回数据类型错误")
		b.handleResult(err)
		return nil, err
	}
	return s, nil
}

func (b *BreakerProvider) handleResult(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		b.stats.FailedRequests++
		b.stats.LastFailure = time.Now()
	} else {
		b.stats.SuccessfulRequests++
	}
}

// State 熔断器当前状态
func (b *BreakerProvider) State() gobreaker.State {
	return b.cb.State()
}

// IsOpen 熔断器是否处于打开状态
func (b *BreakerProvider) IsOpen() bool {
	return b.cb.State() == gobreaker.StateOpen
}

// Stats 当前统计信息快照
func (b *BreakerProvider) Stats() BreakerStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stats
}

// Status 熔断器状态信息，用于健康检查接口
func (b *BreakerProvider) Status() map[string]interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()

	counts := b.cb.Counts()
	return map[string]interface{}{
		"provider": b.inner.Name(),
		"enabled":  b.config.Enabled,
		"state":    b.cb.State().String(),
		"counts": map[string]interface{}{
			"requests":             counts.Requests,
			"total_successes":      counts.TotalSuccesses,
			"total_failures":       counts.TotalFailures,
			"consecutive_failures": counts.ConsecutiveFailures,
		},
		"stats": map[string]interface{}{
			"total_requests":      b.stats.TotalRequests,
			"successful_requests": b.stats.SuccessfulRequests,
			"failed_requests":     b.stats.FailedRequests,
			"last_failure":        b.stats.LastFailure,
		},
	}
}
