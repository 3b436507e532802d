package server

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 是全局可用的 SugaredLogger，未初始化时为 Nop，测试无需额外设置
var Log = zap.NewNop().Sugar()

// RotatingFile 按大小滚动的日志文件：10MB 每文件，保留3个备份，7天
func RotatingFile(filePath string) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     7,
	})
}

// consoleEncoder 中继与机器人共用的控制台格式
func consoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
		EncodeName:    zapcore.FullNameEncoder,
	})
}

// NewLogger 输出到 w 的具名 logger；level: debug/info/warn/error
func NewLogger(name string, w zapcore.WriteSyncer, level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	core := zapcore.NewCore(consoleEncoder(), w, lvl)
	return zap.New(core, zap.AddCaller()).Named(name).Sugar(), nil
}

// InitLogger 把全局 Log 指向滚动日志文件，如 "relay.log"
func InitLogger(filePath, level string) error {
	l, err := NewLogger("relay", RotatingFile(filePath), level)
	if err != nil {
		return err
	}
	Log = l
	return nil
}

// SyncLogger 清理和同步缓冲
func SyncLogger() {
	if Log != nil {
		_ = Log.Sync()
	}
}
