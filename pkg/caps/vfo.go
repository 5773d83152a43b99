package caps

import (
	"fmt"
	"strings"
)

// VFO identifies a VFO or memory mode. Values are bits so that frequency
// ranges can list several VFOs.
type VFO uint32

// VFOs.
const (
	VFONone VFO = 0
	VFOA    VFO = 1 << 0
	VFOB    VFO = 1 << 1
	VFOMem  VFO = 1 << 2

	// VFOCurr refers to whatever VFO is currently selected.
	VFOCurr VFO = 1 << 29
)

// String returns the VFO name.
func (v VFO) String() string {
	switch v {
	case VFONone:
		return "NONE"
	case VFOA:
		return "VFOA"
	case VFOB:
		return "VFOB"
	case VFOMem:
		return "MEM"
	case VFOCurr:
		return "CURR"
	}
	var parts []string
	for _, s := range []VFO{VFOA, VFOB, VFOMem} {
		if v&s != 0 {
			parts = append(parts, s.String())
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("VFO(0x%x)", uint32(v))
	}
	return strings.Join(parts, "|")
}

// ParseVFO parses "A", "B", "VFOA", "VFOB", "MEM" or "CURR".
func ParseVFO(s string) (VFO, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A", "VFOA":
		return VFOA, nil
	case "B", "VFOB":
		return VFOB, nil
	case "MEM", "MEMORY":
		return VFOMem, nil
	case "CURR", "CURRENT":
		return VFOCurr, nil
	}
	return VFONone, fmt.Errorf("unknown VFO %q", s)
}

// MarshalYAML renders the VFO name.
func (v VFO) MarshalYAML() (any, error) {
	return v.String(), nil
}

// VFOOp is a bitmask of VFO/memory operations.
type VFOOp uint32

// VFO operations.
const (
	OpNone    VFOOp = 0
	OpCPY     VFOOp = 1 << 0 // VFO A = VFO B
	OpXCHG    VFOOp = 1 << 1 // swap VFO A and B
	OpFromVFO VFOOp = 1 << 2 // VFO to memory
	OpToVFO   VFOOp = 1 << 3 // memory to VFO
	OpMCL     VFOOp = 1 << 4 // memory clear
	OpUp      VFOOp = 1 << 5
	OpDown    VFOOp = 1 << 6
)

var opNames = []struct {
	op   VFOOp
	name string
}{
	{OpCPY, "CPY"},
	{OpXCHG, "XCHG"},
	{OpFromVFO, "FROM_VFO"},
	{OpToVFO, "TO_VFO"},
	{OpMCL, "MCL"},
	{OpUp, "UP"},
	{OpDown, "DOWN"},
}

// String returns the operation name, or the names of all set bits joined by "|".
func (o VFOOp) String() string {
	return maskString(uint64(o), len(opNames), func(i int) (uint64, string) {
		return uint64(opNames[i].op), opNames[i].name
	})
}

// ParseVFOOp parses an operation name (case-insensitive).
func ParseVFOOp(s string) (VFOOp, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for _, n := range opNames {
		if n.name == u {
			return n.op, nil
		}
	}
	return OpNone, fmt.Errorf("unknown VFO operation %q", s)
}

// MarshalYAML renders the mask as operation names.
func (o VFOOp) MarshalYAML() (any, error) {
	return o.String(), nil
}
