package log

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"clipgen/internal/appdirs"
)

var Logger *zap.Logger

const logFileName = "app.log"

var resolveLogDir = defaultLogDir

func defaultLogDir() string {
	if dir := strings.TrimSpace(os.Getenv("CLIPGEN_LOG_DIR")); dir != "" {
		return dir
	}
	if paths, err := appdirs.Resolve(); err == nil {
		return paths.LogDir
	}
	return "logs"
}

func InitLogger() {
	logDir := resolveLogDir()

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		panic("failed to create log directory: " + err.Error())
	}

	logFilePath := filepath.Join(logDir, logFileName)
	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		panic("failed to open log file: " + err.Error())
	}

	fileSyncer := zapcore.AddSync(file)
	consoleSyncer := zapcore.AddSync(os.Stdout)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileSyncer, zap.DebugLevel),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), consoleSyncer, zap.InfoLevel),
		newRingCore(zapcore.NewConsoleEncoder(encoderConfig), zap.InfoLevel),
	)

	Logger = zap.New(core, zap.AddCaller())
}

func ResolveLogFilePath() string {
	return filepath.Join(resolveLogDir(), logFileName)
}

func GetLogger() *zap.Logger {
	if Logger == nil {
		InitLogger()
	}
	return Logger
}
