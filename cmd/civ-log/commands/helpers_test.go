package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/civ-protocol/civ-go/pkg/civ"
	"github.com/civ-protocol/civ-go/pkg/log"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.clog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("failed to close logger: %v", err)
	}
	return path
}

// sessionEvents returns a set-frequency exchange followed by a transceive
// broadcast.
func sessionEvents(ts time.Time) []log.Event {
	setFreq := civ.NewFrame(0x4a, civ.AddrController, civ.CmdSetFreq, 0x00, 0x00, 0x50, 0x14, 0x00)
	ok := civ.NewFrame(civ.AddrController, 0x4a, civ.CmdOK)
	bcast := civ.NewFrame(civ.AddrBroadcast, 0x4a, civ.CmdSendFreq, 0x00, 0x00, 0x00, 0x45, 0x01)
	elapsed := 12 * time.Millisecond

	out := log.NewCommandEvent(setFreq)
	out.Attempt = 1
	in := log.NewCommandEvent(ok)
	in.Attempt = 1
	in.Elapsed = &elapsed

	base := log.Event{SessionID: "0f3c2a9e-1111-2222-3333-444455556666", Model: "ICR-8500", RigAddr: 0x4a, Port: "/dev/ttyUSB0"}
	events := []log.Event{
		{Timestamp: ts, Direction: log.DirectionOut, Layer: log.LayerTransport, Category: log.CategoryMessage,
			Frame: log.NewFrameEvent(civ.Encode(setFreq))},
		{Timestamp: ts, Direction: log.DirectionOut, Layer: log.LayerFrame, Category: log.CategoryMessage, Command: out},
		{Timestamp: ts.Add(elapsed), Direction: log.DirectionIn, Layer: log.LayerFrame, Category: log.CategoryMessage, Command: in},
		{Timestamp: ts.Add(time.Second), Direction: log.DirectionIn, Layer: log.LayerFrame, Category: log.CategoryEvent,
			Command: log.NewCommandEvent(bcast)},
	}
	for i := range events {
		events[i].SessionID = base.SessionID
		events[i].Model = base.Model
		events[i].RigAddr = base.RigAddr
		events[i].Port = base.Port
	}
	return events
}
