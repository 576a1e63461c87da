// Package logging builds the JSON line logger shared by every component.
// Each line carries ts, level and msg plus the entry's fields.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing one JSON object per line to w, timestamps rendered in loc.
func New(w io.Writer, loc *time.Location) *logrus.Logger {
	l := logrus.New()
	configure(l, w, loc)
	return l
}

// SetupStandard applies the same format to the package-level logrus logger and returns it.
func SetupStandard(w io.Writer, loc *time.Location) *logrus.Logger {
	l := logrus.StandardLogger()
	configure(l, w, loc)
	return l
}

func configure(l *logrus.Logger, w io.Writer, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "msg",
		},
	})
	l.ReplaceHooks(logrus.LevelHooks{})
	l.AddHook(locationHook{loc: loc})
}

// Default logs to stdout in UTC.
func Default() *logrus.Logger {
	return New(os.Stdout, time.UTC)
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *logrus.Logger {
	return New(io.Discard, time.UTC)
}

type locationHook struct {
	loc *time.Location
}

func (h locationHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h locationHook) Fire(e *logrus.Entry) error {
	e.Time = e.Time.In(h.loc)
	return nil
}
