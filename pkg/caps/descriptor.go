package caps

import (
	"slices"
	"time"
)

// ModelID identifies a rig model.
type ModelID int

// Shipped models.
const (
	ModelICR8500 ModelID = 412
)

// RigStatus is the maturity of a backend for a model.
type RigStatus string

const (
	StatusAlpha    RigStatus = "alpha"
	StatusUntested RigStatus = "untested"
	StatusBeta     RigStatus = "beta"
	StatusStable   RigStatus = "stable"
)

// RigType classifies the radio.
type RigType string

const (
	RigTypeReceiver    RigType = "receiver"
	RigTypeTransceiver RigType = "transceiver"
)

// PortType is the physical link to the rig.
type PortType string

const (
	PortSerial PortType = "serial"
)

// Protocol selects the command protocol implementation.
type Protocol string

const (
	ProtocolCIV Protocol = "civ"
)

// Parity of the serial line.
type Parity string

const (
	ParityNone Parity = "none"
	ParityOdd  Parity = "odd"
	ParityEven Parity = "even"
)

// Handshake of the serial line.
type Handshake string

const (
	HandshakeNone     Handshake = "none"
	HandshakeHardware Handshake = "hardware"
)

// Transceive says whether the rig broadcasts state changes on its own.
type Transceive string

const (
	TransceiveNone Transceive = "none"
	TransceiveRig  Transceive = "rig"
)

// SerialCaps are the serial line parameters a model accepts.
type SerialCaps struct {
	RateMin   int       `yaml:"rate_min"`
	RateMax   int       `yaml:"rate_max"`
	DataBits  int       `yaml:"data_bits"`
	StopBits  int       `yaml:"stop_bits"`
	Parity    Parity    `yaml:"parity"`
	Handshake Handshake `yaml:"handshake"`
}

// Timing controls pacing and the transaction retry budget.
type Timing struct {
	// WriteDelay is inserted between bytes of a frame.
	WriteDelay time.Duration `yaml:"write_delay"`
	// PostWriteDelay is inserted after each frame.
	PostWriteDelay time.Duration `yaml:"post_write_delay"`
	// Timeout is the reply window of one transmission.
	Timeout time.Duration `yaml:"timeout"`
	// Retry is the number of transmissions per transaction.
	Retry int `yaml:"retry"`
}

// FreqRange is a receive range valid for some modes on some VFOs.
type FreqRange struct {
	Start uint64 `yaml:"start"`
	End   uint64 `yaml:"end"`
	Modes Mode   `yaml:"modes"`
	VFO   VFO    `yaml:"vfo"`
}

// RangeEnd terminates a range list.
var RangeEnd = FreqRange{}

// TuningStep is a tuning increment valid for some modes.
type TuningStep struct {
	Modes Mode   `yaml:"modes"`
	Step  uint64 `yaml:"step"`
}

// TSEnd terminates a tuning step list.
var TSEnd = TuningStep{}

// Filter is a passband valid for some modes.
type Filter struct {
	Modes Mode   `yaml:"modes"`
	Width uint64 `yaml:"width"`
}

// FilterEnd terminates a filter list.
var FilterEnd = Filter{}

// TSSC maps a tuning step to the rig's step code. A zero Step with a
// non-zero Code is the programmable step.
type TSSC struct {
	Step uint64 `yaml:"step"`
	Code byte   `yaml:"code"`
}

// CalPoint maps a raw meter reading to a calibrated value.
type CalPoint struct {
	Raw   int `yaml:"raw"`
	Value int `yaml:"value"`
}

// CalTable is a list of points sorted by Raw.
type CalTable []CalPoint

// ChanRange is a block of memory channels.
type ChanRange struct {
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
	Type  string `yaml:"type"`
}

// Descriptor is the immutable capability description of one rig model.
type Descriptor struct {
	Model     ModelID   `yaml:"model"`
	ModelName string    `yaml:"model_name"`
	MfgName   string    `yaml:"mfg_name"`
	Version   string    `yaml:"version"`
	Status    RigStatus `yaml:"status"`
	RigType   RigType   `yaml:"rig_type"`
	PortType  PortType  `yaml:"port_type"`
	Protocol  Protocol  `yaml:"protocol"`

	// Address is the default CI-V address of the rig.
	Address byte `yaml:"address"`
	// CIV731 selects 4-byte frequency fields.
	CIV731 bool `yaml:"civ731"`

	Serial SerialCaps `yaml:"serial"`
	Timing Timing     `yaml:"timing"`

	Modes       Mode  `yaml:"modes"`
	HasGetFunc  Func  `yaml:"has_get_func"`
	HasSetFunc  Func  `yaml:"has_set_func"`
	HasGetLevel Level `yaml:"has_get_level"`
	HasSetLevel Level `yaml:"has_set_level"`
	VFOOps      VFOOp `yaml:"vfo_ops"`

	Preamp     []int `yaml:"preamp"`
	Attenuator []int `yaml:"attenuator"`
	MaxRIT     int   `yaml:"max_rit"`

	Transceive Transceive  `yaml:"transceive"`
	BankQty    int         `yaml:"bank_qty"`
	ChanList   []ChanRange `yaml:"chan_list,omitempty"`

	RxRanges    []FreqRange  `yaml:"rx_ranges"`
	TuningSteps []TuningStep `yaml:"tuning_steps"`
	Filters     []Filter     `yaml:"filters"`
	TSSCList    []TSSC       `yaml:"ts_sc_list"`
	StrCal      CalTable     `yaml:"str_cal,omitempty"`
}

// Clone returns a deep copy of d.
func (d *Descriptor) Clone() *Descriptor {
	c := *d
	c.Preamp = slices.Clone(d.Preamp)
	c.Attenuator = slices.Clone(d.Attenuator)
	c.ChanList = slices.Clone(d.ChanList)
	c.RxRanges = slices.Clone(d.RxRanges)
	c.TuningSteps = slices.Clone(d.TuningSteps)
	c.Filters = slices.Clone(d.Filters)
	c.TSSCList = slices.Clone(d.TSSCList)
	c.StrCal = slices.Clone(d.StrCal)
	return &c
}
