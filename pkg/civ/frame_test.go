package civ

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
	}{
		{
			name:  "read frequency request",
			frame: NewFrame(0x4a, AddrController, CmdReadFreq),
		},
		{
			name:  "read frequency reply",
			frame: NewFrame(AddrController, 0x4a, CmdReadFreq, 0x00, 0x00, 0x50, 0x00, 0x00),
		},
		{
			name:  "set frequency 731 dialect",
			frame: NewFrame(0x04, AddrController, CmdSetFreq, 0x00, 0x10, 0x45, 0x14),
		},
		{
			name:  "set mode with passband",
			frame: NewFrame(0x4a, AddrController, CmdSetMode, 0x02, PassbandNarrow),
		},
		{
			name:  "set level",
			frame: NewSubFrame(0x4a, AddrController, CmdLevel, SubLevelSQL, 0x01, 0x28),
		},
		{
			name:  "read level request",
			frame: NewSubFrame(0x4a, AddrController, CmdLevel, SubLevelAF),
		},
		{
			name:  "meter reply",
			frame: NewSubFrame(AddrController, 0x4a, CmdMeter, SubMeterSquelch, 0x01),
		},
		{
			name:  "ok status",
			frame: NewFrame(AddrController, 0x4a, CmdOK),
		},
		{
			name:  "ng status",
			frame: NewFrame(AddrController, 0x4a, CmdNG),
		},
		{
			name:  "transceive broadcast",
			frame: NewFrame(AddrBroadcast, 0x4a, CmdSendFreq, 0x00, 0x00, 0x45, 0x14, 0x00),
		},
		{
			name:  "unknown command raw payload",
			frame: NewFrame(0x4a, AddrController, Command(0x1c), 0x00, 0xab),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := Encode(tt.frame)
			got, err := Decode(raw)
			if err != nil {
				t.Fatalf("Decode(% X) failed: %v", raw, err)
			}
			if !reflect.DeepEqual(got, tt.frame) {
				t.Errorf("round trip = %+v, want %+v", got, tt.frame)
			}
		})
	}
}

func TestEncodeLayout(t *testing.T) {
	f := NewSubFrame(0x4a, AddrController, CmdFunc, SubFuncNB, 0x01)
	want := []byte{0xfe, 0xfe, 0x4a, 0xe0, 0x16, 0x22, 0x01, 0xfd}
	if got := Encode(f); !bytes.Equal(got, want) {
		t.Errorf("Encode = % X, want % X", got, want)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"too short", []byte{0xfe, 0xfe, 0x4a, 0xfd}},
		{"no preamble", []byte{0x00, 0xfe, 0xe0, 0x4a, 0x03, 0xfd}},
		{"no terminator", []byte{0xfe, 0xfe, 0xe0, 0x4a, 0x03, 0x00, 0x00, 0x50, 0x00, 0x00}},
		{"terminator inside body", []byte{0xfe, 0xfe, 0xe0, 0x4a, 0x03, 0xfd, 0xfd}},
		{"frequency too short", []byte{0xfe, 0xfe, 0xe0, 0x4a, 0x03, 0x00, 0x50, 0xfd}},
		{"frequency not BCD", []byte{0xfe, 0xfe, 0xe0, 0x4a, 0x03, 0x00, 0x0a, 0x50, 0x00, 0x00, 0xfd}},
		{"level missing subcommand", []byte{0xfe, 0xfe, 0xe0, 0x4a, 0x14, 0xfd}},
		{"level odd payload", []byte{0xfe, 0xfe, 0xe0, 0x4a, 0x14, 0x03, 0x01, 0xfd}},
		{"status with data", []byte{0xfe, 0xfe, 0xe0, 0x4a, 0xfb, 0x00, 0xfd}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			if !errors.Is(err, ErrMalformedFrame) {
				t.Errorf("Decode(% X) error = %v, want ErrMalformedFrame", tt.raw, err)
			}
		})
	}
}

func TestFrameStatus(t *testing.T) {
	if s := NewFrame(AddrController, 0x4a, CmdOK).Status(); s != StatusOK {
		t.Errorf("OK frame status = %s", s)
	}
	if s := NewFrame(AddrController, 0x4a, CmdNG).Status(); s != StatusNG {
		t.Errorf("NG frame status = %s", s)
	}
	if s := NewFrame(AddrController, 0x4a, CmdReadMode, 0x02).Status(); s != StatusNone {
		t.Errorf("data frame status = %s", s)
	}
}

func TestFrameReply(t *testing.T) {
	req := NewSubFrame(0x4a, AddrController, CmdLevel, SubLevelAF)
	reply := req.Reply(CmdLevel, 0x01, 0x28)

	if reply.To != AddrController || reply.From != 0x4a {
		t.Errorf("reply addressing = %02X->%02X", reply.From, reply.To)
	}
	if !reply.HasSub || reply.Sub != SubLevelAF {
		t.Errorf("reply lost subcommand: %+v", reply)
	}
	if ok := req.Reply(CmdOK); ok.HasSub {
		t.Errorf("status reply should not carry a subcommand: %+v", ok)
	}
}

func TestFrameString(t *testing.T) {
	f := NewFrame(AddrController, 0x4a, CmdReadFreq, 0x00, 0x00, 0x50, 0x00, 0x00)
	want := "4A->E0 READ_FREQ [00 00 50 00 00]"
	if got := f.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
