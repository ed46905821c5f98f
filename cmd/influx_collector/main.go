package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"marketline/pkg/config"
	"marketline/pkg/logger"
	"marketline/pkg/market"
	"marketline/pkg/provider"
	"marketline/pkg/provider/ths"
	"marketline/pkg/provider/zhitu"
	"marketline/pkg/series"
	"marketline/pkg/storage"
)

// 定时抓取指定标的的行情并写入InfluxDB
func main() {
	var (
		configPath = flag.String("config", "", "配置文件路径")
		symbols    = flag.String("symbols", "", "标的代码列表，逗号分隔")
		period     = flag.String("period", "d", "周期: 5/15/20/30/d/w/m/y")
		cronSpec   = flag.String("cron", "*/5 9-15 * * 1-5", "采集周期cron表达式")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Get().Fatalf("加载配置失败: %v", err)
	}
	logger.Init(cfg.Logger.Level, cfg.Logger.Format)
	log := logger.WithComponent("influx_collector")

	if *symbols == "" {
		log.Fatal("必须通过 -symbols 指定至少一个标的")
	}
	if !cfg.InfluxDB.Enabled {
		log.Fatal("必须在配置中启用 influxdb")
	}

	targets := strings.Split(*symbols, ",")
	for i := range targets {
		targets[i] = strings.TrimSpace(targets[i])
	}

	p, err := buildProvider(cfg)
	if err != nil {
		log.Fatalf("初始化数据源失败: %v", err)
	}

	var opts []market.Option
	if cfg.Market.TradingHours != "" {
		opts = append(opts, market.WithCalendar(series.ParseTradingHours(cfg.Market.TradingHours)))
	}
	svc := market.NewService(p, opts...)

	writer := storage.NewInfluxWriter(storage.InfluxConfig{
		URL:    cfg.InfluxDB.URL,
		Token:  cfg.InfluxDB.Token,
		Org:    cfg.InfluxDB.Org,
		Bucket: cfg.InfluxDB.Bucket,
	})
	defer writer.Close()

	collect := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		for _, symbol := range targets {
			bars, err := svc.History(ctx, symbol, *period)
			if err != nil {
				log.Errorf("采集 %s 失败: %v", symbol, err)
				continue
			}
			writer.WriteBars(symbol, *period, bars)
			log.Infof("已采集 %s/%s: %d 条", symbol, *period, len(bars))
		}
		writer.Flush()
	}

	// 启动时先采集一轮
	collect()

	c := cron.New()
	if _, err := c.AddFunc(*cronSpec, collect); err != nil {
		log.Fatalf("注册定时任务失败: %v", err)
	}
	c.Start()
	log.Infof("采集器已启动: %d 个标的, cron=%s", len(targets), *cronSpec)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	<-c.Stop().Done()
	log.Info("采集器已退出")
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
