package icelog

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"sync"
)

type logger interface {
	Println(...interface{})
}

type entry struct {
	logger
	level Level
	color bool
}

var (
	mu      sync.Mutex
	loggers []*entry
	history = NewRing(256)
)

// AddLogger attaches a destination at the given level. color enables ANSI
// coloring of the level prefix (only sensible for a terminal writer).
func AddLogger(name string, l logger, level Level, color bool) {
	mu.Lock()
	defer mu.Unlock()

	for _, e := range loggers {
		if e.logger == l {
			e.level = level
			e.color = color
			return
		}
	}

	loggers = append(loggers, &entry{logger: l, level: level, color: color})
	_ = name
}

// AddStderr attaches os.Stderr as a destination at the given level.
func AddStderr(level Level) {
	AddLogger("stderr", log.New(os.Stderr, "", 0), level, true)
}

// WillLog reports whether any attached logger would emit a message at
// level. Callers use this to skip building expensive debug strings.
func WillLog(level Level) bool {
	mu.Lock()
	defer mu.Unlock()

	for _, e := range loggers {
		if level >= e.level {
			return true
		}
	}
	return false
}

func prologue(level Level, color bool) string {
	msg := level.String() + " "

	_, file, line, ok := runtime.Caller(3)
	if ok {
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if file[i] == '/' {
				short = file[i+1:]
				break
			}
		}
		msg += short + ":" + strconv.Itoa(line) + ": "
	}

	if color {
		msg = colorLine + msg
		switch level {
		case DEBUG:
			msg += colorDebug
		case INFO:
			msg += colorInfo
		case WARN:
			msg += colorWarn
		case ERROR:
			msg += colorError
		default:
			msg += colorFatal
		}
	}
	return msg
}

func epilogue(color bool) string {
	if color {
		return Reset
	}
	return ""
}

func dispatch(requestID uint32, level Level, format string, ln bool, arg ...interface{}) {
	mu.Lock()
	dests := append([]*entry(nil), loggers...)
	mu.Unlock()

	var plain string
	if ln {
		plain = fmt.Sprint(arg...)
	} else {
		plain = fmt.Sprintf(format, arg...)
	}
	history.Println(requestID, level.String()+" "+plain)

	for _, e := range dests {
		if level < e.level {
			continue
		}
		msg := prologue(level, e.color) + plain + epilogue(e.color)
		e.Println(msg)
	}

	if level == FATAL {
		os.Exit(1)
	}
}

// History returns the most recent log lines, oldest first, across every
// request. Used by tooling that wants a general-purpose tail.
func History() []string {
	return history.Dump()
}

// HistoryFor returns the log lines emitted while handling requestID,
// oldest first. The dispatch boundary calls this to enrich a projected
// UnknownException with exactly the context for the call that failed,
// per the server-side log of record.
func HistoryFor(requestID uint32) []string {
	return history.Recent(requestID)
}

func Debug(format string, arg ...interface{}) { dispatch(0, DEBUG, format, false, arg...) }
func Debugln(arg ...interface{})              { dispatch(0, DEBUG, "", true, arg...) }
func Info(format string, arg ...interface{})  { dispatch(0, INFO, format, false, arg...) }
func Infoln(arg ...interface{})               { dispatch(0, INFO, "", true, arg...) }
func Warn(format string, arg ...interface{})  { dispatch(0, WARN, format, false, arg...) }
func Warnln(arg ...interface{})               { dispatch(0, WARN, "", true, arg...) }
func Error(format string, arg ...interface{}) { dispatch(0, ERROR, format, false, arg...) }
func Errorln(arg ...interface{})              { dispatch(0, ERROR, "", true, arg...) }
func Fatal(format string, arg ...interface{}) { dispatch(0, FATAL, format, false, arg...) }
func Fatalln(arg ...interface{})              { dispatch(0, FATAL, "", true, arg...) }

// CtxDebug, CtxInfo, CtxWarn, and CtxError behave like their unsuffixed
// counterparts but tag the history entry with the request id carried on
// ctx (see WithRequestID), so HistoryFor can recover it later.
func CtxDebug(ctx context.Context, format string, arg ...interface{}) {
	dispatch(RequestIDFromContext(ctx), DEBUG, format, false, arg...)
}
func CtxInfo(ctx context.Context, format string, arg ...interface{}) {
	dispatch(RequestIDFromContext(ctx), INFO, format, false, arg...)
}
func CtxWarn(ctx context.Context, format string, arg ...interface{}) {
	dispatch(RequestIDFromContext(ctx), WARN, format, false, arg...)
}
func CtxError(ctx context.Context, format string, arg ...interface{}) {
	dispatch(RequestIDFromContext(ctx), ERROR, format, false, arg...)
}
