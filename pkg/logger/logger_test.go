package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"smart-schedule/config"
)

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger(&config.LogConfig{Level: "info", Format: format})
		if err != nil {
			t.Fatalf("format=%s 初始化失败: %v", format, err)
		}
		_ = l.Sync()
	}
}

func TestNewLogger_LevelFromConfig(t *testing.T) {
	l, err := NewLogger(&config.LogConfig{Level: " warn ", Format: "json"})
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) || !l.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn 级别下不应输出 info 日志")
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "loud"}); err == nil {
		t.Fatal("无效日志级别应返回错误")
	}
}
