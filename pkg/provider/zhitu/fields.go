package zhitu

// 接口返回的字段键为不透明缩写，对外统一重映射为可读名称

// realQuoteFields 实时行情字段映射
var realQuoteFields = map[string]string{
	"p":  "price",
	"o":  "open",
	"h":  "high",
	"l":  "low",
	"yc": "prev_close",

	"ud":    "change",
	"pc":    "change_percent",
	"zs":    "speed",
	"zf":    "amplitude",
	"fm":    "change_5min",
	"zdf60": "change_60day",
	"zdfnc": "change_ytd",

	"v":   "volume",
	"cje": "turnover",
	"lb":  "volume_ratio",
	"hs":  "turnover_rate",

	"sz": "market_cap",
	"lt": "float_cap",

	"pe":  "pe_ratio",
	"sjl": "pb_ratio",

	"t": "time",
}

// RemapFields 按映射表重命名记录的键，未收录的键原样保留
func RemapFields(record map[string]interface{}, mapping map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(record))
	for k, v := range record {
		if name, ok := mapping[k]; ok {
			out[name] = v
		} else {
			out[k] = v
		}
	}
	return out
}
