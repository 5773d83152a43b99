package transport

import (
	"errors"
	"fmt"
	"time"

	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/civ-protocol/civ-go/pkg/log"
	"go.bug.st/serial"
)

// ErrUnsupportedRate indicates a baud rate outside the model's range.
var ErrUnsupportedRate = errors.New("unsupported serial rate")

// Common rates listed by StandardRates.
var standardRates = []int{300, 1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200}

// Config configures a serial connection.
type Config struct {
	// Path is the serial device, e.g. /dev/ttyUSB0 or COM3.
	Path string

	// Rate is the negotiated baud rate.
	Rate int

	DataBits  int
	StopBits  int
	Parity    caps.Parity
	Handshake caps.Handshake

	// WriteDelay is inserted between bytes, PostWriteDelay after a frame.
	WriteDelay     time.Duration
	PostWriteDelay time.Duration

	// Opener opens the port. Nil means SerialOpener.
	Opener Opener

	// Logger receives transport-layer frame events. Nil disables logging.
	Logger    log.Logger
	SessionID string
}

// Negotiate picks the line rate. A requested rate of 0 selects the highest
// rate the model supports. Any other rate must lie within the model's range.
func Negotiate(sc caps.SerialCaps, requested int) (int, error) {
	if requested == 0 {
		if sc.RateMax <= 0 {
			return 0, fmt.Errorf("%w: model declares no rate range", ErrUnsupportedRate)
		}
		return sc.RateMax, nil
	}
	if requested < sc.RateMin || requested > sc.RateMax {
		return 0, fmt.Errorf("%w: %d baud outside %d..%d", ErrUnsupportedRate, requested, sc.RateMin, sc.RateMax)
	}
	return requested, nil
}

// StandardRates returns the common rates within the model's range.
func StandardRates(sc caps.SerialCaps) []int {
	var out []int
	for _, r := range standardRates {
		if r >= sc.RateMin && r <= sc.RateMax {
			out = append(out, r)
		}
	}
	return out
}

// ConfigFor derives a connection config from a descriptor.
func ConfigFor(d *caps.Descriptor, path string, rate int) (Config, error) {
	r, err := Negotiate(d.Serial, rate)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Path:           path,
		Rate:           r,
		DataBits:       d.Serial.DataBits,
		StopBits:       d.Serial.StopBits,
		Parity:         d.Serial.Parity,
		Handshake:      d.Serial.Handshake,
		WriteDelay:     d.Timing.WriteDelay,
		PostWriteDelay: d.Timing.PostWriteDelay,
	}, nil
}

// Mode converts the config into serial line settings.
func (c Config) Mode() (*serial.Mode, error) {
	m := &serial.Mode{BaudRate: c.Rate, DataBits: c.DataBits}
	if m.DataBits == 0 {
		m.DataBits = 8
	}

	switch c.Parity {
	case "", caps.ParityNone:
		m.Parity = serial.NoParity
	case caps.ParityOdd:
		m.Parity = serial.OddParity
	case caps.ParityEven:
		m.Parity = serial.EvenParity
	default:
		return nil, fmt.Errorf("unsupported parity %q", c.Parity)
	}

	switch c.StopBits {
	case 0, 1:
		m.StopBits = serial.OneStopBit
	case 2:
		m.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits %d", c.StopBits)
	}

	switch c.Handshake {
	case "", caps.HandshakeNone, caps.HandshakeHardware:
	default:
		return nil, fmt.Errorf("unsupported handshake %q", c.Handshake)
	}
	return m, nil
}
