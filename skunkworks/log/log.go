package log

import (
	deflog "log"
)

type KeysAndValues []interface{}

type LogConfig struct {
	Level         string
	Files         []string
	Underlying    string
	WriteToStdout bool
	RotateConfig  struct {
		MaxSize    int
		MaxBackups int
		MaxAge     int
		LocalTime  bool
		Compress   bool
		JsonFormat bool
	}
}

// Logger is implemented by the underlying logging backends.
type Logger interface {
	Debugf(template string, args ...interface{})
	Debugw(msg string, kv KeysAndValues)
	Infof(template string, args ...interface{})
	Infow(msg string, kv KeysAndValues)
	Warnf(template string, args ...interface{})
	Warnw(msg string, kv KeysAndValues)
	Errorf(template string, args ...interface{})
	Errorw(msg string, kv KeysAndValues)
	Fatalf(template string, args ...interface{})
	Fatalw(msg string, kv KeysAndValues)
}

var logger Logger

func Setup(cfg *LogConfig) {
	switch cfg.Underlying {
	case "logrus":
		logger = newLogrusLogger(cfg)
	default:
		logger = newLogrusLogger(cfg)
	}
}

func Println(args ...interface{}) {
	if logger != nil {
		logger.Infof("%s", sprintln(args...))
	} else {
		deflog.Println(args...)
	}
}

func Printf(template string, args ...interface{}) {
	Infof(template, args...)
}

func Printw(msg string, kv KeysAndValues) {
	Infow(msg, kv)
}

func Debugf(template string, args ...interface{}) {
	if logger != nil {
		logger.Debugf(template, args...)
	} else {
		deflog.Printf(template, args...)
	}
}

func Debugw(msg string, kv KeysAndValues) {
	if logger != nil {
		logger.Debugw(msg, kv)
	} else {
		deflog.Print(msg, kv)
	}
}

func Infof(template string, args ...interface{}) {
	if logger != nil {
		logger.Infof(template, args...)
	} else {
		deflog.Printf(template, args...)
	}
}

func Infow(msg string, kv KeysAndValues) {
	if logger != nil {
		logger.Infow(msg, kv)
	} else {
		deflog.Print(msg, kv)
	}
}

func Warnf(template string, args ...interface{}) {
	if logger != nil {
		logger.Warnf(template, args...)
	} else {
		deflog.Printf(template, args...)
	}
}

func Warnw(msg string, kv KeysAndValues) {
	if logger != nil {
		logger.Warnw(msg, kv)
	} else {
		deflog.Print(msg, kv)
	}
}

func Errorf(template string, args ...interface{}) {
	if logger != nil {
		logger.Errorf(template, args...)
	} else {
		deflog.Printf(template, args...)
	}
}

func Errorw(msg string, kv KeysAndValues) {
	if logger != nil {
		logger.Errorw(msg, kv)
	} else {
		deflog.Print(msg, kv)
	}
}

func Fatalf(template string, args ...interface{}) {
	if logger != nil {
		logger.Fatalf(template, args...)
	} else {
		deflog.Fatalf(template, args...)
	}
}

func Fatalw(msg string, kv KeysAndValues) {
	if logger != nil {
		logger.Fatalw(msg, kv)
	} else {
		deflog.Fatal(msg, kv)
	}
}
