package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ============================================================
// Process Logger
// ============================================================

// ParseLevel переводит имя уровня (DEBUG, INFO, WARN, ERROR) в slog.Level.
func ParseLevel(value string) (slog.Level, error) {
	m := map[string]slog.Level{
		"DEBUG": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"ERROR": slog.LevelError,
	}
	v, ok := m[strings.ToUpper(strings.TrimSpace(value))]
	if !ok {
		return slog.LevelInfo, fmt.Errorf("unknown log level: %q", value)
	}
	return v, nil
}

// Setup настраивает slog по умолчанию. Если logFile не пустой,
// логи пишутся в файл с ротацией, иначе в stderr.
func Setup(service, level, logFile string) io.Writer {
	lvl, err := ParseLevel(level)
	if err != nil {
		log.Printf("%v, using INFO", err)
	}

	var out io.Writer = os.Stderr
	if logFile != "" {
		out = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
		}
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler).With("service", service))
	return out
}
