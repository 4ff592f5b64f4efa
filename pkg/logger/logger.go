package logger

import (
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
)

var Logger *zap.SugaredLogger

// Init builds the process logger. level is a zap level name ("debug",
// "info", ...); an empty or unknown level keeps the config default.
func Init(dev bool, level string) {

	var cfg zap.Config
	if dev {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	if level != "" {
		if lvl, err := zap.ParseAtomicLevel(level); err == nil {
			cfg.Level = lvl
		} else {
			log.Printf("unknown log level %q, using default", level)
		}
	}

	UpdateLogger(&cfg)
}

func UpdateLogger(config *zap.Config) {
	defaultConfig := zap.NewProductionConfig()
	defaultConfig.OutputPaths = []string{"stdout"}
	if config == nil {
		config = &defaultConfig
	}

	logger, err := config.Build()
	if err != nil {
		log.Print(err)
		return
	}

	Logger = logger.Sugar()
	Info("furniture-admin logger initialized")
}

// Sync flushes buffered entries; call before process exit.
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

func Info(template string, args ...interface{}) {
	if Logger == nil {
		log.Printf(template, args...)
		return
	}
	Logger.Infow(fmt.Sprintf(template, args...), "process_id", os.Getpid())
}

func Warn(template string, args ...interface{}) {
	if Logger == nil {
		log.Printf(template, args...)
		return
	}
	Logger.Warnw(fmt.Sprintf(template, args...), "process_id", os.Getpid())
}

func Error(template string, args ...interface{}) {
	if Logger == nil {
		log.Printf(template, args...)
		return
	}
	Logger.Errorw(fmt.Sprintf(template, args...), "process_id", os.Getpid())
}

func Debug(template string, args ...interface{}) {
	if Logger == nil {
		log.Printf(template, args...)
		return
	}
	Logger.Debugw(fmt.Sprintf(template, args...), "process_id", os.Getpid())
}

// With returns a logger carrying the given key/value pairs, used for
// request-scoped fields such as the request id.
func With(keysAndValues ...interface{}) *zap.SugaredLogger {
	if Logger == nil {
		return zap.NewNop().Sugar()
	}
	return Logger.With(keysAndValues...)
}
