package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/civ-protocol/civ-go/pkg/civ"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 18, 2, 11, 123456789, time.UTC)
	original := Event{
		Timestamp: ts,
		SessionID: "6f1c2a3e-8b7d-4e21-9c55-0f3e2d1b4a99",
		Direction: DirectionOut,
		Layer:     LayerFrame,
		Category:  CategoryMessage,
		Port:      "/dev/ttyUSB0",
		Model:     "ICR-8500",
		RigAddr:   0x4a,
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.SessionID != original.SessionID {
		t.Errorf("SessionID: got %q, want %q", decoded.SessionID, original.SessionID)
	}
	if decoded.Direction != original.Direction {
		t.Errorf("Direction: got %v, want %v", decoded.Direction, original.Direction)
	}
	if decoded.Layer != original.Layer {
		t.Errorf("Layer: got %v, want %v", decoded.Layer, original.Layer)
	}
	if decoded.Port != original.Port || decoded.Model != original.Model {
		t.Errorf("Port/Model: got %q/%q", decoded.Port, decoded.Model)
	}
	if decoded.RigAddr != original.RigAddr {
		t.Errorf("RigAddr: got %02X, want %02X", decoded.RigAddr, original.RigAddr)
	}
}

func TestFrameEventCBORRoundTrip(t *testing.T) {
	raw := civ.Encode(civ.NewFrame(0x4a, 0xe0, civ.CmdReadFreq))
	original := Event{
		Timestamp: time.Now(),
		SessionID: "s-1",
		Direction: DirectionOut,
		Layer:     LayerTransport,
		Category:  CategoryMessage,
		Frame:     NewFrameEvent(raw),
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.Frame == nil {
		t.Fatal("Frame is nil")
	}
	if decoded.Frame.Size != len(raw) {
		t.Errorf("Size: got %d, want %d", decoded.Frame.Size, len(raw))
	}
	if !bytes.Equal(decoded.Frame.Data, raw) {
		t.Errorf("Data: got % X, want % X", decoded.Frame.Data, raw)
	}
}

func TestCommandEventCBORRoundTrip(t *testing.T) {
	elapsed := 42 * time.Millisecond
	ce := NewCommandEvent(civ.NewSubFrame(0xe0, 0x4a, civ.CmdMeter, civ.SubMeterSignal, 0x01, 0x20))
	ce.Attempt = 2
	ce.Elapsed = &elapsed

	data, err := EncodeEvent(Event{
		Timestamp: time.Now(),
		Direction: DirectionIn,
		Layer:     LayerFrame,
		Category:  CategoryMessage,
		Command:   ce,
	})
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	got := decoded.Command
	if got == nil {
		t.Fatal("Command is nil")
	}
	if got.Command != civ.CmdMeter || got.To != 0xe0 || got.From != 0x4a {
		t.Errorf("header: got %+v", got)
	}
	if got.Sub == nil || *got.Sub != civ.SubMeterSignal {
		t.Errorf("Sub: got %v", got.Sub)
	}
	if !bytes.Equal(got.Data, []byte{0x01, 0x20}) {
		t.Errorf("Data: got % X", got.Data)
	}
	if got.Attempt != 2 {
		t.Errorf("Attempt: got %d", got.Attempt)
	}
	if got.Elapsed == nil || *got.Elapsed != elapsed {
		t.Errorf("Elapsed: got %v", got.Elapsed)
	}
}

func TestStateAndErrorCBORRoundTrip(t *testing.T) {
	events := []Event{
		{
			Layer:    LayerRig,
			Category: CategoryState,
			StateChange: &StateChangeEvent{
				Entity:   StateEntityCache,
				OldState: "145000000",
				NewState: "145500000",
				Reason:   "transceive",
			},
		},
		{
			Layer:    LayerFrame,
			Category: CategoryError,
			Error: &ErrorEventData{
				Layer:   LayerFrame,
				Message: "civ: malformed frame: missing terminator",
				Context: "read reply",
			},
		},
	}

	for _, e := range events {
		data, err := EncodeEvent(e)
		if err != nil {
			t.Fatalf("EncodeEvent failed: %v", err)
		}
		decoded, err := DecodeEvent(data)
		if err != nil {
			t.Fatalf("DecodeEvent failed: %v", err)
		}
		if e.StateChange != nil && *decoded.StateChange != *e.StateChange {
			t.Errorf("StateChange: got %+v, want %+v", decoded.StateChange, e.StateChange)
		}
		if e.Error != nil && *decoded.Error != *e.Error {
			t.Errorf("Error: got %+v, want %+v", decoded.Error, e.Error)
		}
	}
}

func TestEncoderStream(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for i := 0; i < 3; i++ {
		if err := enc.Encode(Event{SessionID: "s", RigAddr: uint8(i + 1)}); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
	}

	dec := NewDecoder(&buf)
	for i := 0; i < 3; i++ {
		var e Event
		if err := dec.Decode(&e); err != nil {
			t.Fatalf("Decode %d failed: %v", i, err)
		}
		if e.RigAddr != uint8(i+1) {
			t.Errorf("event %d RigAddr = %d", i, e.RigAddr)
		}
	}
}

func TestDecodeEventGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error for garbage input")
	}
}
