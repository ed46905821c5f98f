// Package logger 封装 logrus，提供按组件划分的日志入口。
package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.Mutex
	log *logrus.Logger
)

// Init 按给定级别和格式初始化全局日志器
// level: debug/info/warn/error，format: text/json
func Init(level, format string) {
	mu.Lock()
	defer mu.Unlock()

	l := logrus.New()

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)

	if format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05.000",
			FullTimestamp:   true,
		})
	}

	l.SetOutput(os.Stdout)
	log = l
}

// Get 返回全局日志器，未初始化时从环境变量初始化
func Get() *logrus.Logger {
	mu.Lock()
	initialized := log != nil
	mu.Unlock()

	if !initialized {
		level := os.Getenv("LOG_LEVEL")
		if level == "" {
			level = "info"
		}
		Init(level, os.Getenv("LOG_FORMAT"))
	}
	return log
}

// WithComponent 创建带组件名的日志器
func WithComponent(component string) *logrus.Entry {
	return Get().WithField("component", component)
}

// SetLevel 调整全局日志级别
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	Get().SetLevel(parsed)
}
