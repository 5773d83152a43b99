package civ

import (
	"bytes"
	"testing"
)

func TestScannerSplitsFrames(t *testing.T) {
	a := Encode(NewFrame(AddrController, 0x4a, CmdOK))
	b := Encode(NewFrame(AddrBroadcast, 0x4a, CmdSendMode, 0x05, 0x02))

	var s Scanner
	stream := append(append([]byte{0x13, 0x37}, a...), b...)

	// Feed one byte at a time like a slow serial line.
	var got [][]byte
	for _, c := range stream {
		s.Feed([]byte{c})
		for {
			f, ok := s.Next()
			if !ok {
				break
			}
			got = append(got, f)
		}
	}

	if len(got) != 2 {
		t.Fatalf("got %d frames, want 2", len(got))
	}
	if !bytes.Equal(got[0], a) || !bytes.Equal(got[1], b) {
		t.Errorf("frames = % X / % X", got[0], got[1])
	}
	if s.Buffered() != 0 {
		t.Errorf("Buffered() = %d, want 0", s.Buffered())
	}
}

func TestScannerCollision(t *testing.T) {
	ok := Encode(NewFrame(AddrController, 0x4a, CmdOK))

	var s Scanner
	s.Feed([]byte{0xfe, 0xfe, 0x4a, 0xe0, 0x03, Collision})
	s.Feed(ok)

	f, found := s.Next()
	if !found || !bytes.Equal(f, ok) {
		t.Fatalf("Next() = % X, %v; want % X", f, found, ok)
	}
	if s.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", s.Dropped())
	}
}

func TestScannerRestartsOnNewPreamble(t *testing.T) {
	ok := Encode(NewFrame(AddrController, 0x4a, CmdOK))

	var s Scanner
	s.Feed([]byte{0xfe, 0xfe, 0x4a, 0xe0, 0x03, 0x00})
	s.Feed(ok)

	f, found := s.Next()
	if !found || !bytes.Equal(f, ok) {
		t.Fatalf("Next() = % X, %v; want % X", f, found, ok)
	}
}

func TestScannerExtraPreambleBytes(t *testing.T) {
	var s Scanner
	s.Feed([]byte{0xfe, 0xfe, 0xfe, 0xe0, 0x4a, 0xfb, 0xfd})

	f, found := s.Next()
	if !found {
		t.Fatal("expected a frame")
	}
	if _, err := Decode(f); err != nil {
		t.Errorf("Decode(% X) failed: %v", f, err)
	}
}

func TestScannerDropsRunawayInput(t *testing.T) {
	var s Scanner
	s.Feed([]byte{0xfe, 0xfe})
	s.Feed(bytes.Repeat([]byte{0x11}, MaxFrameLen))

	if _, found := s.Next(); found {
		t.Fatal("unexpected frame")
	}
	if s.Buffered() != 0 {
		t.Errorf("Buffered() = %d, want 0", s.Buffered())
	}
}

func TestScannerKeepsHalfPreamble(t *testing.T) {
	var s Scanner
	s.Feed([]byte{0x00, 0xfe})
	if _, found := s.Next(); found {
		t.Fatal("unexpected frame")
	}
	s.Feed([]byte{0xfe, 0xe0, 0x4a, 0xfb, 0xfd})
	if _, found := s.Next(); !found {
		t.Fatal("frame split across preamble was lost")
	}
}
