package caps

import "time"

// Frequency units in Hz.
const (
	KHz = 1_000
	MHz = 1_000_000
	GHz = 1_000_000_000
)

const (
	icr8500Modes     = ModeAM | ModeCW | ModeUSB | ModeLSB | ModeRTTY | ModeFM
	icr8500TS1MModes = ModeAM | ModeFM
	icr8500Funcs     = FuncFAGC | FuncNB | FuncTSQL | FuncAPF
	icr8500Levels    = LevelPreamp | LevelAtt | LevelAGC | LevelAPF | LevelSQL | LevelSQLStat | LevelStrength
	icr8500Ops       = OpCPY | OpXCHG | OpFromVFO | OpToVFO | OpMCL
)

var icr8500 = Descriptor{
	Model:     ModelICR8500,
	ModelName: "ICR-8500",
	MfgName:   "Icom",
	Version:   "0.2",
	Status:    StatusUntested,
	RigType:   RigTypeReceiver,
	PortType:  PortSerial,
	Protocol:  ProtocolCIV,
	Address:   0x4a,

	Serial: SerialCaps{
		RateMin:   300,
		RateMax:   19200,
		DataBits:  8,
		StopBits:  1,
		Parity:    ParityNone,
		Handshake: HandshakeNone,
	},
	Timing: Timing{
		Timeout: 200 * time.Millisecond,
		Retry:   3,
	},

	Modes:       icr8500Modes,
	HasGetFunc:  FuncNone,
	HasSetFunc:  icr8500Funcs,
	HasGetLevel: icr8500Levels,
	HasSetLevel: LevelSet(icr8500Levels),
	VFOOps:      icr8500Ops,

	Preamp:     []int{10},
	Attenuator: []int{20},
	MaxRIT:     9999,

	Transceive: TransceiveRig,
	BankQty:    12,

	// Region 2; nothing is receivable in the cellular bands.
	RxRanges: []FreqRange{
		{Start: 100 * KHz, End: 824*MHz - 10, Modes: icr8500Modes, VFO: VFOA},
		{Start: 849*MHz + 10, End: 869*MHz - 10, Modes: icr8500Modes, VFO: VFOA},
		{Start: 894*MHz + 10, End: 2*GHz - 10, Modes: icr8500Modes, VFO: VFOA},
		RangeEnd,
	},

	TuningSteps: []TuningStep{
		{icr8500Modes, 10},
		{icr8500Modes, 50},
		{icr8500Modes, 100},
		{icr8500Modes, 1 * KHz},
		{icr8500Modes, 2500},
		{icr8500Modes, 5 * KHz},
		{icr8500Modes, 9 * KHz},
		{icr8500Modes, 10 * KHz},
		{icr8500Modes, 12500},
		{icr8500Modes, 20 * KHz},
		{icr8500Modes, 25 * KHz},
		{icr8500Modes, 100 * KHz},
		{icr8500TS1MModes, 1 * MHz},
		TSEnd,
	},

	Filters: []Filter{
		{ModeSSB | ModeCW | ModeRTTY, 2400},
		{ModeAM, 8 * KHz},
		{ModeAM, 2400},     // narrow
		{ModeAM, 15 * KHz}, // wide
		{ModeFM, 15 * KHz},
		{ModeFM, 8 * KHz}, // narrow
		{ModeWFM, 230 * KHz},
		FilterEnd,
	},

	TSSCList: []TSSC{
		{10, 0x00},
		{50, 0x01},
		{100, 0x02},
		{1 * KHz, 0x03},
		{2500, 0x04},
		{5 * KHz, 0x05},
		{9 * KHz, 0x06},
		{10 * KHz, 0x07},
		{12500, 0x08},
		{20 * KHz, 0x09},
		{25 * KHz, 0x10},
		{100 * KHz, 0x11},
		{1 * MHz, 0x12},
		{0, 0x13}, // programmable
		{},
	},
}
