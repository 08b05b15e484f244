package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
)

var (
	logger  = newLogger(os.Stderr, charmlog.InfoLevel, charmlog.TextFormatter)
	logFile *os.File
	mu      sync.Mutex
)

func newLogger(w io.Writer, level charmlog.Level, formatter charmlog.Formatter) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
		Formatter:       formatter,
	})
}

// InitLog 初始化日志
// path 为空时只输出到标准错误，否则同时写入日志文件
// format 取 "text"、"json" 或 "logfmt"
func InitLog(path, level, format string) error {
	lvl, err := charmlog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}

	var formatter charmlog.Formatter
	switch format {
	case "", "text":
		formatter = charmlog.TextFormatter
	case "json":
		formatter = charmlog.JSONFormatter
	case "logfmt":
		formatter = charmlog.LogfmtFormatter
	default:
		return fmt.Errorf("unknown log format %q", format)
	}

	var w io.Writer = os.Stderr
	var f *os.File
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		f, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, f)
	}

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	logger = newLogger(w, lvl, formatter)
	return nil
}

// CloseLog 关闭日志文件
func CloseLog() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logger = newLogger(os.Stderr, logger.GetLevel(), charmlog.TextFormatter)
}

// SetOutput 将日志重定向到 w，测试中用于捕获输出
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger.SetOutput(w)
}

// Logger 返回当前日志实例
func Logger() *charmlog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// WriteLog 写入一条 Info 级别日志
func WriteLog(msg string, keyvals ...any) {
	Logger().Info(msg, keyvals...)
}

// Debug 写入一条 Debug 级别日志
func Debug(msg string, keyvals ...any) {
	Logger().Debug(msg, keyvals...)
}

// Warn 写入一条 Warn 级别日志
func Warn(msg string, keyvals ...any) {
	Logger().Warn(msg, keyvals...)
}

// Error 写入一条 Error 级别日志
func Error(msg string, keyvals ...any) {
	Logger().Error(msg, keyvals...)
}

// LogEnvironment 记录运行环境
func LogEnvironment() {
	WriteLog("environment",
		"go", runtime.Version(),
		"os", runtime.GOOS,
		"arch", runtime.GOARCH,
		"cpus", runtime.NumCPU(),
		"gomaxprocs", runtime.GOMAXPROCS(0),
	)
}

// LogSimParameters 记录一次模拟的参数
func LogSimParameters(name string, keyvals ...any) {
	Logger().With("scenario", name).Info("simulation parameters", keyvals...)
}
