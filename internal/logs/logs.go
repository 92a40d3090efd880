// Copyright 2020, Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logs

import (
	"log"
	"os"

	"github.com/TApplencourt/xpumanager/internal/version"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const (
	messageKey  = "message"
	severityKey = "severity"
	timeKey     = "timestamp"
)

type StructuredLogger interface {
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
	Println(v ...any)
}

type ZapStructuredLogger struct {
	logger *zap.SugaredLogger
}

func severityEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var severity string

	switch level {
	case zapcore.ErrorLevel:
		severity = "ERROR"
	case zapcore.WarnLevel:
		severity = "WARNING"
	case zapcore.InfoLevel:
		severity = "INFO"
	case zapcore.DebugLevel:
		severity = "DEBUG"
	default:
		severity = "DEFAULT"
	}
	enc.AppendString(severity)
}

func New(file string) *ZapStructuredLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.MessageKey = messageKey
	cfg.EncoderConfig.LevelKey = severityKey
	cfg.EncoderConfig.TimeKey = timeKey
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = severityEncoder
	cfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	cfg.OutputPaths = []string{
		file,
	}
	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return Default()
	}

	sugar := logger.Sugar().With(
		zap.String("xpumd-version", version.Version))
	return &ZapStructuredLogger{
		logger: sugar,
	}
}

func DiscardLogger() (*ZapStructuredLogger, *observer.ObservedLogs) {
	observedZapCore, observedLogs := observer.New(zap.InfoLevel)
	observedLogger := zap.New(observedZapCore)
	fileLogger := &ZapStructuredLogger{
		logger: observedLogger.Sugar(),
	}
	return fileLogger, observedLogs
}

func Default() *ZapStructuredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		logger, _ := DiscardLogger()
		return logger
	}
	sugar := logger.Sugar().With(
		zap.String("xpumd-version", version.Version))
	return &ZapStructuredLogger{
		logger: sugar,
	}
}

func (f ZapStructuredLogger) Infof(format string, v ...any) {
	f.logger.Infof(format, v...)
}

func (f ZapStructuredLogger) Errorf(format string, v ...any) {
	f.logger.Errorf(format, v...)
}

func (f ZapStructuredLogger) Println(v ...any) {
	f.logger.Infoln(v...)
}

type SimpleLogger struct {
	l *log.Logger
}

func (sl SimpleLogger) Fatalf(format string, v ...any) {
	sl.l.Fatalf(format, v...)
}

func (sl SimpleLogger) Printf(format string, v ...any) {
	sl.l.Printf(format, v...)
}

func (sl SimpleLogger) Infof(format string, v ...any) {
	sl.l.Printf(format, v...)
}

func (sl SimpleLogger) Errorf(format string, v ...any) {
	sl.l.Printf(format, v...)
}

func (sl SimpleLogger) Println(v ...any) {
	sl.l.Println(v...)
}

func NewSimpleLogger() SimpleLogger {
	return SimpleLogger{log.New(os.Stdout, log.Prefix(), log.Flags())}
}
