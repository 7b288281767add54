package logger

import (
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// callerHook adjusts the caller reported by logrus so it points
// to the original call site outside of the logger package.
type callerHook struct{}

func (h *callerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

const pkgPrefix = "github.com/rustyeddy/terminal/logger."

// internalFrame reports whether frame belongs to logrus or to this
// package's non-test code.
func internalFrame(frame runtime.Frame) bool {
	fn := frame.Function
	if strings.Contains(fn, "sirupsen/logrus") {
		return true
	}
	return strings.HasPrefix(fn, pkgPrefix) && !strings.HasSuffix(frame.File, "_test.go")
}

// Fire sets the entry's Caller to the first frame outside of logrus
// and this package.
func (h *callerHook) Fire(entry *logrus.Entry) error {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(6, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !internalFrame(frame) {
			entry.Caller = &frame
			break
		}
		if !more {
			break
		}
	}
	return nil
}
