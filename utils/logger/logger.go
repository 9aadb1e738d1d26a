// Package logger tags log lines with the object that produced them and hands them to logrus
// from a single background goroutine.
package logger

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

type stringer interface {
	String() string
}

type logPair struct {
	level logrus.Level
	obj   string
	msg   string
}

const (
	logSize   = 1000
	objWidth  = 20
	msgWidth  = 100
	timestamp = "2006/01/02 15:04:05"
)

var (
	logCh   chan logPair
	running atomic.Bool
	drained sync.WaitGroup
	initMu  sync.Mutex
)

func objToString(obj any) (objStr string) {
	switch o := obj.(type) {
	case nil:
		objStr = "NIL"
	case stringer:
		objStr = o.String()
	case string:
		objStr = o
	default:
		t := reflect.TypeOf(obj)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		objStr = t.Name()
	}
	if len(objStr) > objWidth {
		objStr = objStr[:objWidth]
	}
	return
}

func format(p logPair) string {
	return fmt.Sprintf("|%*s|%-*s", objWidth, p.obj, msgWidth, p.msg)
}

// ParseLevel accepts the logrus level names, case-insensitively, plus "warn".
func ParseLevel(s string) (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("logger: %w", err)
	}
	return lvl, nil
}

// Init sets the level and starts the writer goroutine. Lines logged before Init are written
// synchronously. Calling Init again only changes the level.
func Init(lvl logrus.Level) {
	initMu.Lock()
	defer initMu.Unlock()

	logrus.SetLevel(lvl)
	if running.Load() {
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:     true,
		FullTimestamp:   true,
		PadLevelText:    true,
		TimestampFormat: timestamp,
	})

	logCh = make(chan logPair, logSize)
	drained.Add(1)
	go func(ch <-chan logPair) {
		defer drained.Done()
		for p := range ch {
			logrus.StandardLogger().Log(p.level, format(p))
		}
	}(logCh)
	running.Store(true)
}

// Close flushes queued lines and stops the writer goroutine. Later lines are written synchronously.
func Close() {
	initMu.Lock()
	defer initMu.Unlock()

	if !running.Load() {
		return
	}
	running.Store(false)
	close(logCh)
	drained.Wait()
}

func emit(level logrus.Level, object any, msg string) {
	if !logrus.IsLevelEnabled(level) {
		return
	}
	p := logPair{level: level, obj: objToString(object), msg: msg}

	initMu.Lock()
	defer initMu.Unlock()
	if running.Load() {
		logCh <- p
		return
	}
	logrus.StandardLogger().Log(level, format(p))
}

func Trace(object any, message string) {
	emit(logrus.TraceLevel, object, message)
}

func Tracef(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		emit(logrus.TraceLevel, object, fmt.Sprintf(message, args...))
	}
}

func Debug(object any, message string) {
	emit(logrus.DebugLevel, object, message)
}

func Debugf(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		emit(logrus.DebugLevel, object, fmt.Sprintf(message, args...))
	}
}

func Info(object any, message string) {
	emit(logrus.InfoLevel, object, message)
}

func Infof(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.InfoLevel) {
		emit(logrus.InfoLevel, object, fmt.Sprintf(message, args...))
	}
}

func Warning(object any, message string) {
	emit(logrus.WarnLevel, object, message)
}

func Warningf(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.WarnLevel) {
		emit(logrus.WarnLevel, object, fmt.Sprintf(message, args...))
	}
}

func Error(object any, message string) {
	emit(logrus.ErrorLevel, object, message)
}

func Errorf(object any, message string, args ...any) {
	if logrus.IsLevelEnabled(logrus.ErrorLevel) {
		emit(logrus.ErrorLevel, object, fmt.Sprintf(message, args...))
	}
}

// Fatalf flushes queued lines, logs synchronously and exits.
func Fatalf(object any, message string, args ...any) {
	Close()
	logrus.Fatal(format(logPair{obj: objToString(object), msg: fmt.Sprintf(message, args...)}))
}
