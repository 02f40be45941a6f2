// Package log is the leveled, structured logger shared by all fatstream
// packages.
package log

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

type FieldKey string

const (
	FieldError      FieldKey = "error"
	FieldCluster    FieldKey = "cluster"
	FieldClusters   FieldKey = "clusters"
	FieldChain      FieldKey = "chain_length"
	FieldPosition   FieldKey = "position"
	FieldSize       FieldKey = "size"
	FieldName       FieldKey = "name"
	FieldFATType    FieldKey = "fat_type"
	FieldImage      FieldKey = "image"
	FieldConfigPath FieldKey = "config_path"
)

type Fields map[FieldKey]any

type Level = pterm.LogLevel

const (
	LevelTrace Level = pterm.LogLevelTrace
	LevelDebug Level = pterm.LogLevelDebug
	LevelInfo  Level = pterm.LogLevelInfo
	LevelWarn  Level = pterm.LogLevelWarn
	LevelError Level = pterm.LogLevelError
)

var (
	levelNames = map[string]Level{
		"trace":   LevelTrace,
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
	}

	loggerMu = sync.RWMutex{}

	baseLogger = func() *pterm.Logger {
		template := pterm.DefaultLogger.WithTime(true).
			WithTimeFormat(time.RFC3339).
			WithMaxWidth(120).
			WithCaller(false)
		return template.AppendKeyStyles(map[string]pterm.Style{
			string(FieldError): *pterm.NewStyle(pterm.FgRed, pterm.Bold),
		})
	}()

	// The library is quiet unless a binary asks for more.
	currentLevel = LevelWarn
)

// Configure sets the level by its name. An empty name selects info.
func Configure(level string) error {
	level = strings.TrimSpace(strings.ToLower(level))
	if level == "" {
		SetLevel(LevelInfo)
		return nil
	}
	lvl, ok := levelNames[level]
	if !ok {
		SetLevel(LevelInfo)
		return fmt.Errorf("unknown log level %q", level)
	}
	SetLevel(lvl)
	return nil
}

func SetLevel(level Level) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	currentLevel = level
	baseLogger.Level = level
}

// SetOutput redirects all log lines, mainly for tests and the cli.
func SetOutput(w io.Writer) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	baseLogger = baseLogger.WithWriter(w)
}

func enabled(level Level) bool {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return level >= currentLevel
}

func log(level Level, msg string, fields Fields) {
	if !enabled(level) {
		return
	}

	loggerMu.RLock()
	logger := baseLogger
	loggerMu.RUnlock()

	args := loggerArgs(fields)

	switch level {
	case LevelTrace:
		logger.Trace(msg, args)
	case LevelDebug:
		logger.Debug(msg, args)
	case LevelWarn:
		logger.Warn(msg, args)
	case LevelError:
		logger.Error(msg, args)
	default:
		logger.Info(msg, args)
	}
}

func loggerArgs(fields Fields) []pterm.LoggerArgument {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	args := make([]pterm.LoggerArgument, 0, len(keys))
	for _, key := range keys {
		args = append(args, pterm.LoggerArgument{Key: key, Value: fields[FieldKey(key)]})
	}
	return args
}

func Debug(msg string, fields Fields) { log(LevelDebug, msg, fields) }
func Info(msg string, fields Fields)  { log(LevelInfo, msg, fields) }
func Warn(msg string, fields Fields)  { log(LevelWarn, msg, fields) }
func Error(msg string, fields Fields) { log(LevelError, msg, fields) }
