package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Leveled logger shared by the API process.
// - Debug/Info/Warn/Error/Fatal printf variants
// - key/value variants (Infow etc.) for structured fields
// - "text" (default) or "json" line format

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
}

var (
	mu      sync.RWMutex
	logger  *log.Logger = log.New(os.Stdout, "", 0)
	level   Level       = LevelInfo
	jsonOut bool
)

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Unknown values fall back to info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level = LevelDebug
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	case "fatal":
		level = LevelFatal
	default:
		level = LevelInfo
	}
}

// SetFormat selects the line format: "json" or anything else for text.
func SetFormat(f string) {
	mu.Lock()
	defer mu.Unlock()
	jsonOut = strings.EqualFold(strings.TrimSpace(f), "json")
}

func shouldLog(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

func isJSON() bool {
	mu.RLock()
	defer mu.RUnlock()
	return jsonOut
}

// emit writes one line. kv must be alternating key/value pairs; a dangling
// key is paired with "(MISSING)".
func emit(l Level, msg string, kv []interface{}) {
	ts := time.Now().Format(time.RFC3339)
	if isJSON() {
		rec := map[string]interface{}{"ts": ts, "level": levelNames[l], "msg": msg}
		for i := 0; i < len(kv); i += 2 {
			k := fmt.Sprint(kv[i])
			if i+1 < len(kv) {
				rec[k] = jsonValue(kv[i+1])
			} else {
				rec[k] = "(MISSING)"
			}
		}
		b, err := json.Marshal(rec)
		if err != nil {
			logger.Printf(`{"ts":%q,"level":"error","msg":"log marshal failed: %s"}`, ts, err)
			return
		}
		logger.Print(string(b))
		return
	}
	var sb strings.Builder
	sb.WriteString(ts)
	sb.WriteString(" [")
	sb.WriteString(strings.ToUpper(levelNames[l]))
	sb.WriteString("] ")
	sb.WriteString(msg)
	for i := 0; i < len(kv); i += 2 {
		sb.WriteByte(' ')
		sb.WriteString(fmt.Sprint(kv[i]))
		sb.WriteByte('=')
		if i+1 < len(kv) {
			sb.WriteString(fmt.Sprintf("%v", kv[i+1]))
		} else {
			sb.WriteString("(MISSING)")
		}
	}
	logger.Print(sb.String())
}

// errors do not marshal to anything useful
func jsonValue(v interface{}) interface{} {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return v
}

func logf(l Level, format string, v ...interface{}) {
	if !shouldLog(l) {
		return
	}
	emit(l, fmt.Sprintf(format, v...), nil)
}

func Debugf(format string, v ...interface{}) { logf(LevelDebug, format, v...) }
func Infof(format string, v ...interface{})  { logf(LevelInfo, format, v...) }
func Warnf(format string, v ...interface{})  { logf(LevelWarn, format, v...) }
func Errorf(format string, v ...interface{}) { logf(LevelError, format, v...) }

func Fatalf(format string, v ...interface{}) {
	emit(LevelFatal, fmt.Sprintf(format, v...), nil)
	os.Exit(1)
}

// Debugw/Infow/Warnw/Errorw log msg with alternating key/value fields.
func Debugw(msg string, kv ...interface{}) { logw(LevelDebug, msg, kv) }
func Infow(msg string, kv ...interface{})  { logw(LevelInfo, msg, kv) }
func Warnw(msg string, kv ...interface{})  { logw(LevelWarn, msg, kv) }
func Errorw(msg string, kv ...interface{}) { logw(LevelError, msg, kv) }

func logw(l Level, msg string, kv []interface{}) {
	if !shouldLog(l) {
		return
	}
	emit(l, msg, kv)
}

// Println kept for brief messages (maps to Info)
func Println(v ...interface{}) {
	if !shouldLog(LevelInfo) {
		return
	}
	emit(LevelInfo, strings.TrimSuffix(fmt.Sprintln(v...), "\n"), nil)
}

func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	if s, ok := levelNames[level]; ok {
		return s
	}
	return "info"
}
