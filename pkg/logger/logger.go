package logger

import (
	"io"
	"os"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzap "github.com/hertz-contrib/logger/zap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"DriverOnboard/config"
)

var (
	// Init 之前是 no-op，测试和库调用方无需初始化
	Logger   = zap.NewNop()
	logClose io.Closer
)

// Profile 日志输出形态
type Profile int

const (
	// Server 开发后端：带时间和调用位置，LOGGER_FORMAT 选择 json 或 text
	Server Profile = iota
	// CLI 命令行：每条一行 "level: message {fields}"，不带时间，标准输出留给命令结果
	CLI
)

func Init(p Profile) {
	level := parseZapLevel(config.Cfg.LoggerLevel)
	hzLogger := build(p, config.Cfg.LoggerFormat, buildWriteSyncer(config.Cfg.LoggerOutputPath), level)

	hlog.SetLogger(hzLogger)
	hlog.SetLevel(hlogLevel(p, level))

	Logger = hzLogger.Logger()
	if p == Server {
		Logger = Logger.With(zap.String("service", config.Cfg.ServiceName))
	}
	Logger.Debug("Logger initialized",
		zap.String("level", strings.ToUpper(config.Cfg.LoggerLevel)),
		zap.String("format", config.Cfg.LoggerFormat),
		zap.String("environment", config.Cfg.Environment),
	)
}

func build(p Profile, format string, ws zapcore.WriteSyncer, level zapcore.Level) *hertzzap.Logger {
	coreLevel := zap.NewAtomicLevelAt(level)

	var zapOpts []zap.Option
	if p == Server {
		zapOpts = append(zapOpts, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	return hertzzap.NewLogger(
		hertzzap.WithCoreEnc(buildEncoder(p, format)),
		hertzzap.WithCoreWs(ws),
		hertzzap.WithCoreLevel(coreLevel),
		hertzzap.WithZapOptions(zapOpts...),
	)
}

// hlogLevel CLI 下 hertz 客户端自身的日志只保留警告以上
func hlogLevel(p Profile, level zapcore.Level) hlog.Level {
	if p == CLI && level < zapcore.WarnLevel {
		level = zapcore.WarnLevel
	}
	return toHlogLevel(level)
}

func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}

	if logClose != nil {
		_ = logClose.Close()
	}
}

func buildEncoder(p Profile, format string) zapcore.Encoder {
	if p == CLI {
		return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			LevelKey:         "level",
			MessageKey:       "msg",
			EncodeLevel:      cliLevelEncoder,
			EncodeDuration:   zapcore.StringDurationEncoder,
			ConsoleSeparator: " ",
		})
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	if strings.EqualFold(format, "text") {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encoderConfig)
	}

	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

// cliLevelEncoder 输出 "warn:"
func cliLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(l.String() + ":")
}

// buildWriteSyncer 默认写 stderr，其他值视为文件路径
func buildWriteSyncer(path string) zapcore.WriteSyncer {
	switch strings.ToLower(path) {
	case "stdout":
		return zapcore.AddSync(os.Stdout)
	case "stderr", "":
		return zapcore.AddSync(os.Stderr)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		panic("failed to open log file: " + err.Error())
	}
	logClose = file

	return zapcore.AddSync(file)
}

func parseZapLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func toHlogLevel(level zapcore.Level) hlog.Level {
	switch level {
	case zapcore.DebugLevel:
		return hlog.LevelDebug
	case zapcore.InfoLevel:
		return hlog.LevelInfo
	case zapcore.WarnLevel:
		return hlog.LevelWarn
	case zapcore.ErrorLevel:
		return hlog.LevelError
	default:
		return hlog.LevelInfo
	}
}
