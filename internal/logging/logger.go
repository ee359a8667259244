package logging

import (
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Setup configures the global logrus logger used by every package.
func Setup(level string, out io.Writer) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	log.SetLevel(lvl)
	if out != nil {
		log.SetOutput(out)
	}
	log.SetFormatter(&log.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})
	return nil
}

// StageLogger records the lines emitted while operating on one stage and
// forwards each of them to logrus tagged with the stage name. The recorded
// lines make up the stage's transcript.
type StageLogger struct {
	stage string
	entry *log.Entry
	lines []string
	mu    sync.Mutex
}

func NewStageLogger(stage string) *StageLogger {
	return &StageLogger{
		stage: stage,
		entry: log.WithField("stage", stage),
	}
}

func (l *StageLogger) Stage() string { return l.stage }

func (l *StageLogger) Log(format string, args ...any) {
	l.record(log.InfoLevel, format, args...)
}

func (l *StageLogger) Warn(format string, args ...any) {
	l.record(log.WarnLevel, format, args...)
}

func (l *StageLogger) Debug(format string, args ...any) {
	l.record(log.DebugLevel, format, args...)
}

func (l *StageLogger) record(level log.Level, format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	ts := time.Now().Format("15:04:05")
	full := fmt.Sprintf("[%s] %s", ts, line)

	l.mu.Lock()
	l.lines = append(l.lines, full)
	l.mu.Unlock()

	l.entry.Log(level, line)
}

func (l *StageLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]string, len(l.lines))
	copy(cp, l.lines)
	return cp
}
