// Package logging configures the structured logger shared by the
// scheduler and cmd/retl. Only ambient, pipeline-level events are
// logged here — per-row evaluation never logs (spec.md §5 "logging is
// a scheduler/connector concern, not a per-row one").
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logrus.Logger configured the way the rest of the
// pipeline expects: JSON output so the run ID and pipeline name are
// machine-parseable by downstream log shipping, level from the
// RETL_LOG_LEVEL environment variable (defaulting to info).
func New() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	log.SetOutput(io.Writer(os.Stderr))
	log.SetLevel(levelFromEnv())
	return log
}

func levelFromEnv() logrus.Level {
	lvl, err := logrus.ParseLevel(os.Getenv("RETL_LOG_LEVEL"))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// ForPipeline returns an Entry pre-tagged with the pipeline's name and
// run ID, so every subsequent log line from one run carries both
// without the caller repeating them.
func ForPipeline(log *logrus.Logger, pipeline, runID string) *logrus.Entry {
	return log.WithFields(logrus.Fields{"pipeline": pipeline, "run_id": runID})
}
