package rigsim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/civ-protocol/civ-go/pkg/civ"
)

// exchange writes a command and returns the decoded frames that come back.
func exchange(t *testing.T, s *Sim, f civ.Frame) []civ.Frame {
	t.Helper()
	_, err := s.Write(civ.Encode(f))
	require.NoError(t, err)
	return drain(t, s)
}

func drain(t *testing.T, s *Sim) []civ.Frame {
	t.Helper()
	require.NoError(t, s.SetReadTimeout(10*time.Millisecond))
	var sc civ.Scanner
	buf := make([]byte, 256)
	for {
		n, err := s.Read(buf)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		sc.Feed(buf[:n])
	}
	var out []civ.Frame
	for {
		raw, ok := sc.Next()
		if !ok {
			return out
		}
		f, err := civ.Decode(raw)
		require.NoError(t, err)
		out = append(out, f)
	}
}

func cmd(c civ.Command, data ...byte) civ.Frame {
	return civ.NewFrame(0x4a, civ.AddrController, c, data...)
}

func TestEchoAndReply(t *testing.T) {
	s := New(Config{})
	req := cmd(civ.CmdReadFreq)

	got := exchange(t, s, req)
	require.Len(t, got, 2)
	assert.Equal(t, req, got[0], "echo")
	assert.Equal(t, civ.AddrController, got[1].To)
	assert.Equal(t, byte(0x4a), got[1].From)

	hz, err := civ.DecodeFreq(got[1].Data)
	require.NoError(t, err)
	assert.Equal(t, uint64(145_000_000), hz)
}

func TestNoEcho(t *testing.T) {
	s := New(Config{NoEcho: true})
	got := exchange(t, s, cmd(civ.CmdSetFreq, civ.EncodeFreq(500_000, false)...))
	require.Len(t, got, 1)
	assert.Equal(t, civ.StatusOK, got[0].Status())
	assert.Equal(t, uint64(500_000), s.Freq())
}

func TestRejections(t *testing.T) {
	tests := []struct {
		name  string
		frame civ.Frame
	}{
		{"OutOfRange", cmd(civ.CmdSetFreq, civ.EncodeFreq(825_000_000, false)...)},
		{"WFMNotSupported", cmd(civ.CmdSetMode, 0x06, 0x02)},
		{"NoWideCW", cmd(civ.CmdSetMode, 0x03, 0x01)},
		{"BadAttenuator", cmd(civ.CmdAttenuator, 0x10)},
		{"BadStepCode", cmd(civ.CmdTuningStep, 0x14)},
		{"EmptyMemory", cmd(civ.CmdMemToVFO)},
		{"UnknownCommand", cmd(civ.Command(0x1a))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Config{NoEcho: true})
			got := exchange(t, s, tt.frame)
			require.Len(t, got, 1)
			assert.Equal(t, civ.StatusNG, got[0].Status())
		})
	}
}

func TestRejectAndSilent(t *testing.T) {
	s := New(Config{NoEcho: true})

	s.Reject(civ.CmdLevel)
	got := exchange(t, s, civ.NewSubFrame(0x4a, civ.AddrController, civ.CmdLevel, civ.SubLevelSQL, 0x01, 0x00))
	require.Len(t, got, 1)
	assert.Equal(t, civ.StatusNG, got[0].Status())

	s.Accept(civ.CmdLevel)
	got = exchange(t, s, civ.NewSubFrame(0x4a, civ.AddrController, civ.CmdLevel, civ.SubLevelSQL, 0x01, 0x00))
	require.Len(t, got, 1)
	assert.Equal(t, civ.StatusOK, got[0].Status())
	assert.Equal(t, uint64(100), s.LevelRaw(civ.SubLevelSQL))

	s.SetSilent(true)
	assert.Empty(t, exchange(t, s, cmd(civ.CmdReadMode)))
	assert.Equal(t, 3, s.ReceivedCount())
}

func TestOtherAddressIgnored(t *testing.T) {
	s := New(Config{NoEcho: true})
	got := exchange(t, s, civ.NewFrame(0x5c, civ.AddrController, civ.CmdReadFreq))
	assert.Empty(t, got)
	assert.Zero(t, s.ReceivedCount())
}

func TestVFOAndMemory(t *testing.T) {
	s := New(Config{NoEcho: true})

	exchange(t, s, cmd(civ.CmdSetVFO, civ.SubVFOExchange))
	assert.Equal(t, uint64(7_100_000), s.Freq())

	exchange(t, s, cmd(civ.CmdSetMem, 0x00, 0x42))
	exchange(t, s, cmd(civ.CmdWriteMem))
	freq, mode, ok := s.Memory(42)
	require.True(t, ok)
	assert.Equal(t, uint64(7_100_000), freq)
	assert.Equal(t, caps.ModeLSB, mode)

	exchange(t, s, cmd(civ.CmdSetMem))
	assert.Equal(t, caps.VFOMem, s.VFO())
	got := exchange(t, s, cmd(civ.CmdSetFreq, civ.EncodeFreq(500_000, false)...))
	assert.Equal(t, civ.StatusNG, got[0].Status(), "memory mode is not tunable")

	exchange(t, s, cmd(civ.CmdClearMem))
	_, _, ok = s.Memory(42)
	assert.False(t, ok)
}

func TestTransceiveBroadcast(t *testing.T) {
	s := New(Config{})
	s.Tune(14_200_000)
	require.NoError(t, s.SetLocalMode(caps.ModeUSB, caps.WidthNarrow))

	got := drain(t, s)
	require.Len(t, got, 2)
	assert.True(t, got[0].IsBroadcast())
	assert.Equal(t, civ.CmdSendFreq, got[0].Cmd)
	assert.Equal(t, civ.CmdSendMode, got[1].Cmd)
	assert.Equal(t, []byte{0x01, 0x03}, got[1].Data)

	m, w := s.Mode()
	assert.Equal(t, caps.ModeUSB, m)
	assert.Equal(t, caps.WidthNarrow, w)
}

func TestNoTransceive(t *testing.T) {
	s := New(Config{NoTransceive: true})
	s.Tune(14_200_000)
	assert.Empty(t, drain(t, s))
	assert.Equal(t, uint64(14_200_000), s.Freq())
}

func TestPortBehaviour(t *testing.T) {
	s := New(Config{})

	port, err := s.Opener()("/dev/sim0", &serial.Mode{BaudRate: 9600, DataBits: 8})
	require.NoError(t, err)
	assert.Equal(t, 9600, s.LineMode().BaudRate)

	require.NoError(t, port.SetRTS(true))
	require.NoError(t, port.SetDTR(true))
	rts, dtr := s.Lines()
	assert.True(t, rts)
	assert.True(t, dtr)

	s.Inject([]byte{0x01, 0x02})
	require.NoError(t, port.ResetInputBuffer())
	require.NoError(t, port.SetReadTimeout(5*time.Millisecond))
	n, err := port.Read(make([]byte, 8))
	assert.NoError(t, err)
	assert.Zero(t, n, "timeout returns no bytes")

	done := make(chan error, 1)
	require.NoError(t, port.SetReadTimeout(serial.NoTimeout))
	go func() {
		_, err := port.Read(make([]byte, 8))
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, port.Close())
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Close did not wake the reader")
	}

	_, err = s.Write([]byte{0xfe})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Opener()("/dev/sim0", &serial.Mode{})
	assert.ErrorIs(t, err, ErrClosed)
}
