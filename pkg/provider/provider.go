package provider

import (
	"context"
	"errors"
	"fmt"

	"marketline/pkg/bar"
)

// HistoryProvider 历史行情数据源。
// 实现方负责把各自的原始报文解析为规范化的 bar.Series，
// 返回的序列按时间升序排列。
type HistoryProvider interface {
	// Name 数据源名称
	Name() string

	// FetchAllHistory 获取指定标的的全部日线历史
	FetchAllHistory(ctx context.Context, symbol string) (bar.Series, error)

	// FetchLatest 获取指定标的当日的分钟级数据
	FetchLatest(ctx context.Context, symbol string) (bar.Series, error)
}

// QuoteProvider 实时报价数据源
type QuoteProvider interface {
	Name() string

	// FetchQuote 获取单个标的的实时快照
	FetchQuote(ctx context.Context, symbol string) (map[string]interface{}, error)
}

var (
	// ErrSymbolNotSupported 标的代码无法被该数据源识别
	ErrSymbolNotSupported = errors.New("数据源不支持该标的代码")

	// ErrUpstream 上游接口返回异常
	ErrUpstream = errors.New("上游数据接口异常")
)

// DecodeError 原始报文结构无法解析
type DecodeError struct {
	Source string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("[%s] 报文解析失败: %s", e.Source, e.Reason)
}

// FormatError 报文结构可解析但内容不符合预期格式
type FormatError struct {
	Source string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("[%s] 报文格式错误: %s", e.Source, e.Reason)
}

// MissingFieldError 报文缺少必需字段
type MissingFieldError struct {
	Source string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("[%s] 报文缺少字段: %s", e.Source, e.Field)
}
