// Package logging собирает slog логгер для CLI и вспомогательные функции для логов.
package logging

import (
	"io"
	"log/slog"
)

// MaxBodyLogLen ограничивает размер тела ответа в логах
const MaxBodyLogLen = 512

// New создает текстовый slog логгер.
// При debug=true включается уровень Debug, иначе Info.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard возвращает логгер, который ничего не пишет
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Truncate обрезает тело до max байт для вывода в лог
func Truncate(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
