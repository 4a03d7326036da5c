package log

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogrusLogger struct {
	logger *logrus.Logger
}

func getLevel(level string) logrus.Level {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}

func newLogrusLogger(cfg *LogConfig) Logger {
	l := logrus.New()
	l.SetLevel(getLevel(cfg.Level))

	writers := make([]io.Writer, 0, len(cfg.Files)+1)
	if cfg.WriteToStdout {
		writers = append(writers, os.Stdout)
	}
	for _, v := range cfg.Files {
		writers = append(writers, &lumberjack.Logger{
			Filename:   v,
			MaxSize:    cfg.RotateConfig.MaxSize,
			MaxBackups: cfg.RotateConfig.MaxBackups,
			MaxAge:     cfg.RotateConfig.MaxAge,
			LocalTime:  cfg.RotateConfig.LocalTime,
			Compress:   cfg.RotateConfig.Compress,
		})
	}
	switch len(writers) {
	case 0:
		l.SetOutput(ioutil.Discard)
	case 1:
		l.SetOutput(writers[0])
	default:
		l.SetOutput(io.MultiWriter(writers...))
	}

	if cfg.RotateConfig.JsonFormat {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z0700"})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	}

	return &LogrusLogger{logger: l}
}

// fields turns alternating keys and values into logrus fields.
func fields(kv KeysAndValues) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2+1)
	for i := 0; i < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		if i+1 >= len(kv) {
			f["!BADKEY"] = key
			break
		}
		f[key] = kv[i+1]
	}
	return f
}

func sprintln(args ...interface{}) string {
	return strings.TrimSuffix(fmt.Sprintln(args...), "\n")
}

func (l *LogrusLogger) Debugf(template string, args ...interface{}) {
	l.logger.Debugf(template, args...)
}

func (l *LogrusLogger) Debugw(msg string, kv KeysAndValues) {
	l.logger.WithFields(fields(kv)).Debug(msg)
}

func (l *LogrusLogger) Infof(template string, args ...interface{}) {
	l.logger.Infof(template, args...)
}

func (l *LogrusLogger) Infow(msg string, kv KeysAndValues) {
	l.logger.WithFields(fields(kv)).Info(msg)
}

func (l *LogrusLogger) Warnf(template string, args ...interface{}) {
	l.logger.Warnf(template, args...)
}

func (l *LogrusLogger) Warnw(msg string, kv KeysAndValues) {
	l.logger.WithFields(fields(kv)).Warn(msg)
}

func (l *LogrusLogger) Errorf(template string, args ...interface{}) {
	l.logger.Errorf(template, args...)
}

func (l *LogrusLogger) Errorw(msg string, kv KeysAndValues) {
	l.logger.WithFields(fields(kv)).Error(msg)
}

func (l *LogrusLogger) Fatalf(template string, args ...interface{}) {
	l.logger.Fatalf(template, args...)
}

func (l *LogrusLogger) Fatalw(msg string, kv KeysAndValues) {
	l.logger.WithFields(fields(kv)).Fatal(msg)
}
