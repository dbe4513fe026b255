package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"tg-warden/internal/config"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarning
	levelError
)

var minLevel = levelInfo

// createLogFilePath generates a log file path with the current date
func createLogFilePath(logDir, prefix string) string {
	currentDate := time.Now().Format("2006-01-02")
	return filepath.Join(logDir, fmt.Sprintf("%s-%s.log", prefix, currentDate))
}

// createRotatingLogger creates a lumberjack rotating logger
func createRotatingLogger(logFilePath string, cfg *config.Config) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    cfg.Logger.Rotation.MaxSize,
		MaxBackups: cfg.Logger.Rotation.MaxBackups,
		MaxAge:     cfg.Logger.Rotation.MaxAge,
		Compress:   cfg.Logger.Rotation.Compress,
	}
}

// Setup configures logging to output to both stdout and a rotating log file
func Setup(cfg *config.Config) error {
	logDir := cfg.Logger.Directory

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	switch strings.ToUpper(cfg.Logger.Level) {
	case "DEBUG":
		minLevel = levelDebug
	case "WARNING", "WARN":
		minLevel = levelWarning
	case "ERROR":
		minLevel = levelError
	default:
		minLevel = levelInfo
	}

	logFilePath := createLogFilePath(logDir, "tg-warden")
	rotatingLogger := createRotatingLogger(logFilePath, cfg)
	multiWriter := io.MultiWriter(os.Stdout, rotatingLogger)

	log.SetOutput(multiWriter)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	log.Printf("Logging initialized: writing to %s", logFilePath)
	return nil
}

func logf(l level, tag, format string, args ...interface{}) {
	if l < minLevel {
		return
	}
	log.Output(3, fmt.Sprintf(tag+format, args...))
}

func Debugf(format string, args ...interface{}) {
	logf(levelDebug, "[DEBUG] ", format, args...)
}

func Infof(format string, args ...interface{}) {
	logf(levelInfo, "[INFO] ", format, args...)
}

func Warningf(format string, args ...interface{}) {
	logf(levelWarning, "[WARNING] ", format, args...)
}

func Errorf(format string, args ...interface{}) {
	logf(levelError, "[ERROR] ", format, args...)
}

func Error(msg string) {
	logf(levelError, "[ERROR] ", "%s", msg)
}
