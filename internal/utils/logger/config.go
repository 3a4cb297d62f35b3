// internal/utils/logger/config.go
package logger

import "go.uber.org/zap/zapcore"

type Config struct {
	LogFile     string // пусто — только консоль
	MaxSize     int    // мегабайты
	MaxAge      int    // дни
	MaxBackups  int    // количество файлов
	Compress    bool   // сжимать ротированные файлы
	Development bool
	// Console receives the human-readable stream. Defaults to stderr so that
	// command output on stdout stays clean.
	Console zapcore.WriteSyncer
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		LogFile:     "logs/chipctl.log",
		MaxSize:     50,   // 50 MB
		MaxAge:      7,    // 7 дней
		MaxBackups:  3,    // 3 файла
		Compress:    true, // сжимать старые логи
		Development: false,
	}
}
