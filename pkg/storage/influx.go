package storage

import (
	"math"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/sirupsen/logrus"

	"marketline/pkg/indicator"
	"marketline/pkg/logger"
)

// InfluxConfig InfluxDB连接配置
type InfluxConfig struct {
	URL    string `mapstructure:"url"`
	Token  string `mapstructure:"token"`
	Org    string `mapstructure:"org"`
	Bucket string `mapstructure:"bucket"`
}

// InfluxWriter 把K线及指标写入InfluxDB时序库
type InfluxWriter struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	log      *logrus.Entry
}

// NewInfluxWriter 创建InfluxDB写入器
func NewInfluxWriter(cfg InfluxConfig) *InfluxWriter {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	return &InfluxWriter{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		log:      logger.WithComponent("storage.influx"),
	}
}

// WriteBars 按标的写入一批K线。
// 未定义（NaN）的指标字段跳过，不写入空值。
func (w *InfluxWriter) WriteBars(symbol, period string, bars []indicator.EnrichedBar) {
	for _, b := range bars {
		p := influxdb2.NewPointWithMeasurement("bars").
			AddTag("symbol", symbol).
			AddTag("period", period).
			SetTime(b.Timestamp)

		for name, value := range b.Record() {
			if name == "timestamp" {
				continue
			}
			f, ok := value.(float64)
			if !ok || math.IsNaN(f) {
				continue
			}
			p.AddField(name, f)
		}

		w.writeAPI.WritePoint(p)
	}
	w.log.Debugf("已提交 %s/%s 的 %d 条K线", symbol, period, len(bars))
}

// Flush 等待缓冲数据写入完成
func (w *InfluxWriter) Flush() {
	w.writeAPI.Flush()
}

// Close 关闭底层连接
func (w *InfluxWriter) Close() {
	w.writeAPI.Flush()
	w.client.Close()
}
