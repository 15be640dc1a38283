package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New はサービス名付きのzerologロガーを作る。
// レベル文字列が不正ならinfoで動かす（起動は止めない）。
func New(service string, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
