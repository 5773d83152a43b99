package transport

import (
	"testing"

	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestNegotiate(t *testing.T) {
	sc := caps.SerialCaps{RateMin: 300, RateMax: 19200}

	tests := []struct {
		name      string
		requested int
		want      int
		wantErr   bool
	}{
		{"default picks max", 0, 19200, false},
		{"minimum", 300, 300, false},
		{"in range", 9600, 9600, false},
		{"maximum", 19200, 19200, false},
		{"too slow", 110, 0, true},
		{"too fast", 38400, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Negotiate(sc, tt.requested)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedRate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNegotiateNoRange(t *testing.T) {
	_, err := Negotiate(caps.SerialCaps{}, 0)
	assert.ErrorIs(t, err, ErrUnsupportedRate)
}

func TestStandardRates(t *testing.T) {
	rates := StandardRates(caps.SerialCaps{RateMin: 300, RateMax: 19200})
	assert.Equal(t, []int{300, 1200, 2400, 4800, 9600, 19200}, rates)
}

func TestConfigFor(t *testing.T) {
	d, ok := caps.Default().Lookup(caps.ModelICR8500)
	require.True(t, ok)

	cfg, err := ConfigFor(d, "/dev/ttyUSB0", 0)
	require.NoError(t, err)
	assert.Equal(t, 19200, cfg.Rate)
	assert.Equal(t, 8, cfg.DataBits)
	assert.Equal(t, caps.HandshakeNone, cfg.Handshake)

	_, err = ConfigFor(d, "/dev/ttyUSB0", 57600)
	assert.ErrorIs(t, err, ErrUnsupportedRate)
}

func TestConfigMode(t *testing.T) {
	m, err := Config{Rate: 4800, StopBits: 2, Parity: caps.ParityEven}.Mode()
	require.NoError(t, err)
	assert.Equal(t, 4800, m.BaudRate)
	assert.Equal(t, 8, m.DataBits)
	assert.Equal(t, serial.TwoStopBits, m.StopBits)
	assert.Equal(t, serial.EvenParity, m.Parity)

	_, err = Config{Parity: "mark"}.Mode()
	assert.Error(t, err)
	_, err = Config{StopBits: 3}.Mode()
	assert.Error(t, err)
	_, err = Config{Handshake: "xonxoff"}.Mode()
	assert.Error(t, err)
}
