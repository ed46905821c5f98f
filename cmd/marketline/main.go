package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"marketline/pkg/config"
	"marketline/pkg/logger"
	"marketline/pkg/market"
	"marketline/pkg/provider"
	"marketline/pkg/provider/ths"
	"marketline/pkg/provider/zhitu"
	"marketline/pkg/series"
)

func main() {
	var (
		configPath = flag.String("config", "", "配置文件路径")
		symbol     = flag.String("symbol", "", "标的代码，如 600000 或 HK0700")
		period     = flag.String("period", "d", "周期: 5/15/20/30/d/w/m/y")
		tail       = flag.Int("tail", 10, "只输出最近N条，0为全部")
	)
	flag.Parse()

	if *symbol == "" {
		fmt.Fprintln(os.Stderr, "用法: marketline -symbol 600000 [-period d] [-tail 10]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Logger.Level, cfg.Logger.Format)

	p, err := buildProvider(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化数据源失败: %v\n", err)
		os.Exit(1)
	}

	var opts []market.Option
	if cfg.Market.TradingHours != "" {
		opts = append(opts, market.WithCalendar(series.ParseTradingHours(cfg.Market.TradingHours)))
	}
	svc := market.NewService(p, opts...)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	records, err := svc.HistoryRecords(ctx, *symbol, *period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取行情失败: %v\n", err)
		os.Exit(1)
	}

	if *tail > 0 && len(records) > *tail {
		records = records[len(records)-*tail:]
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		fmt.Fprintf(os.Stderr, "输出失败: %v\n", err)
		os.Exit(1)
	}
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
