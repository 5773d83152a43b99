package commands

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/civ-protocol/civ-go/pkg/civ"
	"github.com/civ-protocol/civ-go/pkg/log"
)

func readAll(t *testing.T, path string) []log.Event {
	t.Helper()
	r, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer r.Close()

	var events []log.Event
	for {
		e, err := r.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		events = append(events, e)
	}
}

func TestRunFilter(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := sessionEvents(ts)
	other := events[0]
	other.SessionID = "ffffffff-other"
	other.Model = "IC-706"
	events = append(events, other)
	path := createTestLogFile(t, events)

	tests := []struct {
		name string
		opts FilterOptions
		want int
	}{
		{"session", FilterOptions{SessionID: "ffffffff-other"}, 1},
		{"model", FilterOptions{Model: "ICR-8500"}, 4},
		{"layer", FilterOptions{Layer: "frame"}, 3},
		{"direction", FilterOptions{Direction: "in"}, 2},
		{"category", FilterOptions{Category: "event"}, 1},
		{"command", FilterOptions{Command: "set_freq"}, 1},
		{"time window", FilterOptions{TimeStart: "2026-01-28T10:00:00Z", TimeEnd: "2026-01-28T10:00:01Z"}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Output = filepath.Join(t.TempDir(), "out.clog")
			n, err := RunFilter(path, tt.opts)
			if err != nil {
				t.Fatalf("RunFilter failed: %v", err)
			}
			if n != tt.want {
				t.Errorf("RunFilter wrote %d events, want %d", n, tt.want)
			}
			if got := readAll(t, tt.opts.Output); len(got) != tt.want {
				t.Errorf("output holds %d events, want %d", len(got), tt.want)
			}
		})
	}
}

func TestRunFilterPreservesEvents(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	path := createTestLogFile(t, sessionEvents(ts))

	out := filepath.Join(t.TempDir(), "out.clog")
	if _, err := RunFilter(path, FilterOptions{Output: out, Command: "05"}); err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	got := readAll(t, out)
	if len(got) != 1 || got[0].Command == nil {
		t.Fatalf("expected one command event, got %+v", got)
	}
	if got[0].Command.Command != civ.CmdSetFreq || got[0].Command.Attempt != 1 {
		t.Errorf("unexpected command event %+v", got[0].Command)
	}
	if got[0].Port != "/dev/ttyUSB0" || got[0].RigAddr != 0x4a {
		t.Errorf("envelope not preserved: %+v", got[0])
	}
}

func TestRunFilterInvalidOptions(t *testing.T) {
	path := createTestLogFile(t, sessionEvents(time.Now()))
	out := filepath.Join(t.TempDir(), "out.clog")

	for _, opts := range []FilterOptions{
		{Output: out, TimeStart: "yesterday"},
		{Output: out, TimeEnd: "tomorrow"},
		{Output: out, Layer: "wire"},
		{Output: out, Direction: "up"},
		{Output: out, Category: "snapshot"},
		{Output: out, Command: "zz"},
	} {
		if _, err := RunFilter(path, opts); err == nil {
			t.Errorf("expected error for %+v", opts)
		}
	}
}
