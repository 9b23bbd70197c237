// Package logging provides the structured logger shared by every storage
// engine component (buf, mtr, btree, trx, lock, purge, recovery).
package logging

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Subsystem names used as the "sys" field on every log entry.
const (
	SysBuf      = "buf"
	SysMtr      = "mtr"
	SysPage     = "page"
	SysBtree    = "btree"
	SysUndo     = "undo"
	SysMVCC     = "mvcc"
	SysTrx      = "trx"
	SysLock     = "lock"
	SysPurge    = "purge"
	SysRecovery = "recovery"
	SysFsp      = "fsp"
)

var root = logrus.New()

func init() {
	root.SetFormatter(&compactFormatter{})
	root.SetLevel(logrus.InfoLevel)
}

// compactFormatter renders one line per entry: "HH:MM:SS.mmm LEVL sys msg k=v k=v".
type compactFormatter struct{}

func (f *compactFormatter) Format(e *logrus.Entry) ([]byte, error) {
	level := strings.ToUpper(e.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	sys, _ := e.Data["sys"].(string)
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-4s %-9s %s", e.Time.Format("15:04:05.000"), level, sys, e.Message)
	for k, v := range e.Data {
		if k == "sys" {
			continue
		}
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// SetLevel adjusts the global verbosity.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	root.SetLevel(lvl)
}

// For returns a logger bound to one subsystem.
func For(sys string) *logrus.Entry {
	return root.WithField("sys", sys)
}

// Since is a convenience for latency fields: logging.For(SysBuf).WithField("ms", logging.Since(t0))
func Since(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
