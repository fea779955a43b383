package main

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds the diagnostics logger. Console output goes to stderr so
// it never mixes with decoded messages on stdout.
func newLogger(c LogConfig) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
	}

	level := zap.WarnLevel
	switch strings.ToLower(c.Level) {
	case "debug":
		level = zap.DebugLevel
	case "info":
		level = zap.InfoLevel
	case "warn", "warning":
		level = zap.WarnLevel
	case "error":
		level = zap.ErrorLevel
	}

	var cores []zapcore.Core
	if c.FileEnable {
		filename := c.File
		if filename == "" {
			filename = "logs/dltdump.log"
		}
		fileSync := zapcore.AddSync(&lumberjack.Logger{
			Filename:   filename,
			MaxSize:    c.MaxSize,
			MaxBackups: c.MaxBack,
			MaxAge:     c.MaxAge,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), fileSync, level))
	}
	if c.ConsoleEnable || len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(os.Stderr),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}
