package instrument

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"marketline/pkg/logger"
	"marketline/pkg/provider/zhitu"
)

// Source 标的列表数据源
type Source interface {
	ListStocks(ctx context.Context) ([]zhitu.Listing, error)
	ListIndexes(ctx context.Context) ([]zhitu.Listing, error)
}

// Refresher 定时从数据源刷新标的列表到存储
type Refresher struct {
	source Source
	store  Store
	cron   *cron.Cron
	spec   string
	log    *logrus.Entry
}

// NewRefresher 创建标的刷新器。
// spec 为标准cron表达式，如 "0 6 * * *" 表示每日6点刷新。
func NewRefresher(source Source, store Store, spec string) *Refresher {
	return &Refresher{
		source: source,
		store:  store,
		cron:   cron.New(),
		spec:   spec,
		log:    logger.WithComponent("instrument.refresher"),
	}
}

// Start 立即刷新一次并启动定时任务
func (r *Refresher) Start(ctx context.Context) error {
	if err := r.Refresh(ctx); err != nil {
		return fmt.Errorf("初次刷新标的列表失败: %w", err)
	}

	_, err := r.cron.AddFunc(r.spec, func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := r.Refresh(refreshCtx); err != nil {
			r.log.Errorf("定时刷新标的列表失败: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("注册定时任务失败: %w", err)
	}

	r.cron.Start()
	r.log.Infof("标的刷新器已启动, cron=%s", r.spec)
	return nil
}

// Stop 停止定时任务，等待进行中的刷新结束
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.log.Info("标的刷新器已停止")
}

// Refresh 拉取股票与指数列表并写入存储
func (r *Refresher) Refresh(ctx context.Context) error {
	stocks, err := r.source.ListStocks(ctx)
	if err != nil {
		return fmt.Errorf("获取股票列表失败: %w", err)
	}
	indexes, err := r.source.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("获取指数列表失败: %w", err)
	}

	instruments := make([]Instrument, 0, len(stocks)+len(indexes))
	for _, l := range stocks {
		instruments = append(instruments, Instrument{
			Symbol:   l.Code,
			Name:     l.Name,
			Exchange: stockExchange(l.Code),
			Kind:     KindStock,
		})
	}
	for _, l := range indexes {
		instruments = append(instruments, Instrument{
			Symbol:   l.Code,
			Name:     l.Name,
			Exchange: indexExchange(l.Code),
			Kind:     KindIndex,
		})
	}

	if err := r.store.Put(ctx, instruments); err != nil {
		return fmt.Errorf("写入标的存储失败: %w", err)
	}
	r.log.Infof("标的列表已刷新: 股票 %d, 指数 %d", len(stocks), len(indexes))
	return nil
}

func stockExchange(code string) string {
	switch {
	case strings.HasPrefix(code, "6") || strings.HasPrefix(code, "5"):
		return "SH"
	case strings.HasPrefix(code, "0") || strings.HasPrefix(code, "3"):
		return "SZ"
	default:
		return "BJ"
	}
}

func indexExchange(code string) string {
	if i := strings.LastIndex(code, "."); i >= 0 {
		return code[i+1:]
	}
	return ""
}
