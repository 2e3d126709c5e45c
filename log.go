package orbsim

import (
	"io"

	kitlog "github.com/go-kit/kit/log"
)

// NewLogger returns a logfmt logger on w. Unless verbose, "info" records are dropped and
// only notices, warnings and critical records are written.
func NewLogger(w io.Writer, verbose bool) kitlog.Logger {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	if verbose {
		return kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)
	}
	return quietLogger{logger}
}

type quietLogger struct {
	next kitlog.Logger
}

func (l quietLogger) Log(keyvals ...interface{}) error {
	for i := 0; i+1 < len(keyvals); i += 2 {
		if keyvals[i] == "level" && keyvals[i+1] == "info" {
			return nil
		}
	}
	return l.next.Log(keyvals...)
}
