package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"marketline/pkg/api"
	"marketline/pkg/config"
	"marketline/pkg/instrument"
	"marketline/pkg/logger"
	"marketline/pkg/market"
	"marketline/pkg/provider"
	"marketline/pkg/provider/ths"
	"marketline/pkg/provider/zhitu"
	"marketline/pkg/series"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Get().Fatalf("加载配置失败: %v", err)
	}

	logger.Init(cfg.Logger.Level, cfg.Logger.Format)
	log := logger.WithComponent("api_server")
	gin.SetMode(cfg.Server.Mode)

	p, err := buildProvider(cfg)
	if err != nil {
		log.Fatalf("初始化数据源失败: %v", err)
	}

	var opts []market.Option
	if cfg.Market.TradingHours != "" {
		opts = append(opts, market.WithCalendar(series.ParseTradingHours(cfg.Market.TradingHours)))
	}
	svc := market.NewService(p, opts...)

	resolver, refresher := buildResolver(cfg, log)
	if refresher != nil {
		if err := refresher.Start(context.Background()); err != nil {
			log.Warnf("标的刷新器启动失败，标的查询可能不完整: %v", err)
		}
		defer refresher.Stop()
	}

	server := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: api.NewServer(svc, resolver).Handler(),
	}

	go func() {
		log.Infof("行情服务已启动: http://%s", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("收到退出信号，开始优雅关闭")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("关闭服务失败: %v", err)
	}
	log.Info("服务已退出")
}

func buildProvider(cfg *config.Config) (provider.HistoryProvider, error) {
	var base provider.HistoryProvider
	switch cfg.Provider.Name {
	case "zhitu":
		p, err := zhitu.NewProvider(cfg.Zhitu.Token)
		if err != nil {
			return nil, err
		}
		base = p
	default:
		base = ths.NewProvider()
	}

	bc := provider.DefaultBreakerConfig()
	bc.Enabled = cfg.Provider.BreakerEnabled
	bc.ReadyToTrip = cfg.Provider.BreakerTrip
	bc.Timeout = cfg.Provider.BreakerTimeout
	return provider.NewBreakerProvider(base, bc), nil
}

// buildResolver 组装标的解析器。
// 标的列表来自知图接口，未配置令牌时关闭该能力；
// 启用Redis时标的存储在多个实例间共享。
func buildResolver(cfg *config.Config, log interface{ Warnf(string, ...interface{}) }) (*instrument.Resolver, *instrument.Refresher) {
	if cfg.Zhitu.Token == "" {
		log.Warnf("未配置 zhitu.token，标的查询接口不可用")
		return nil, nil
	}

	source, err := zhitu.NewProvider(cfg.Zhitu.Token)
	if err != nil {
		log.Warnf("初始化标的数据源失败: %v", err)
		return nil, nil
	}

	var store instrument.Store
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = instrument.NewRedisStore(client, cfg.Redis.TTL)
	} else {
		store = instrument.NewMemoryStore()
	}

	refresher := instrument.NewRefresher(source, store, cfg.Market.RefreshCron)
	return instrument.NewResolver(store), refresher
}
