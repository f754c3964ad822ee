package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		emit    func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("x") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("x") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("x") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("wrote output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestStopwatchLap(t *testing.T) {
	var buf bytes.Buffer
	startStopwatch(newLogger(&buf, log.InfoLevel)).lap("Ingested %d records", 3)

	out := buf.String()
	if !strings.Contains(out, "Ingested 3 records") || !strings.Contains(out, "took=") {
		t.Errorf("lap output %q should carry message and duration", out)
	}
}

func TestSetupAttachesLogger(t *testing.T) {
	isolate(t)
	c := New(&bytes.Buffer{}, LogInfo)
	root := c.RootCommand()
	leaf, _, err := root.Find([]string{"config", "path"})
	if err != nil {
		t.Fatal(err)
	}

	var got *log.Logger
	inner := leaf.RunE
	leaf.RunE = func(cmd *cobra.Command, args []string) error {
		got = log.FromContext(cmd.Context())
		return inner(cmd, args)
	}
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"config", "path"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got != c.Logger {
		t.Error("commands should see the CLI logger on their context")
	}
}
