// Package logx 构造进程级 slog.Logger。
package logx

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel 把 debug/info/warn/error 映射为 slog.Level；无法识别时返回 Info。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New 返回写入 w 的文本 logger（stdout 留给命令输出，日志一律写 stderr）。
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}
