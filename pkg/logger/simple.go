package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// SimpleLogger is a dependency-free Logger implementation: JSON lines to
// stdout, or text lines through the standard log package (stderr), with
// level filtering and field inheritance via
// With. It is the default logger used by core.Config when no Logger
// option is supplied.
type SimpleLogger struct {
	level  LogLevel
	format string
	fields map[string]interface{}
}

// NewSimpleLogger builds a logger reading LOG_LEVEL/LOG_FORMAT from the
// environment, defaulting to INFO/text.
func NewSimpleLogger() *SimpleLogger {
	l := &SimpleLogger{
		level:  InfoLevel,
		format: strings.ToLower(os.Getenv("LOG_FORMAT")),
		fields: make(map[string]interface{}),
	}
	l.SetLevel(GetLogLevel())
	return l
}

func NewDefaultLogger() Logger {
	return NewSimpleLogger()
}

func (l *SimpleLogger) Debug(msg string, fields ...interface{}) {
	if l.level <= DebugLevel {
		l.log("DEBUG", msg, fields...)
	}
}

func (l *SimpleLogger) Info(msg string, fields ...interface{}) {
	if l.level <= InfoLevel {
		l.log("INFO", msg, fields...)
	}
}

func (l *SimpleLogger) Warn(msg string, fields ...interface{}) {
	if l.level <= WarnLevel {
		l.log("WARN", msg, fields...)
	}
}

func (l *SimpleLogger) Error(msg string, fields ...interface{}) {
	if l.level <= ErrorLevel {
		l.log("ERROR", msg, fields...)
	}
}

func (l *SimpleLogger) SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		l.level = DebugLevel
	case "INFO":
		l.level = InfoLevel
	case "WARN", "WARNING":
		l.level = WarnLevel
	case "ERROR":
		l.level = ErrorLevel
	}
}

func (l *SimpleLogger) WithField(key string, value interface{}) Logger {
	return l.With(Field{Key: key, Value: value})
}

func (l *SimpleLogger) WithFields(fields map[string]interface{}) Logger {
	fs := make([]Field, 0, len(fields))
	for k, v := range fields {
		fs = append(fs, Field{Key: k, Value: v})
	}
	return l.With(fs...)
}

func (l *SimpleLogger) With(fields ...Field) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for _, f := range fields {
		merged[f.Key] = f.Value
	}
	return &SimpleLogger{level: l.level, format: l.format, fields: merged}
}

func (l *SimpleLogger) log(level, msg string, extra ...interface{}) {
	if l.format == "json" {
		rec := make(map[string]interface{}, len(l.fields)+3)
		rec["time"] = time.Now().UTC().Format(time.RFC3339)
		rec["level"] = level
		rec["msg"] = msg
		for k, v := range l.fields {
			rec[k] = v
		}
		for i := 0; i+1 < len(extra); i += 2 {
			if k, ok := extra[i].(string); ok {
				rec[k] = extra[i+1]
			}
		}
		b, err := json.Marshal(rec)
		if err != nil {
			log.Println(level, msg, err)
			return
		}
		fmt.Println(string(b))
		return
	}

	parts := make([]string, 0, len(l.fields)+2)
	parts = append(parts, fmt.Sprintf("[%s]", level), msg)
	for k, v := range l.fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	for i := 0; i+1 < len(extra); i += 2 {
		parts = append(parts, fmt.Sprintf("%v=%v", extra[i], extra[i+1]))
	}
	log.Println(strings.Join(parts, " "))
}

// GetLogLevel reads LOG_LEVEL from the environment, defaulting to INFO.
func GetLogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "INFO"
	}
	return level
}
