package engine

// State is the phase of a transaction.
type State uint8

const (
	StateIdle State = iota
	StateSent
	StateAwaitingReply
	StateMatched
	StateTimedOut
	StateEchoOnly
)

var stateNames = [...]string{
	StateIdle:          "IDLE",
	StateSent:          "SENT",
	StateAwaitingReply: "AWAITING_REPLY",
	StateMatched:       "MATCHED",
	StateTimedOut:      "TIMED_OUT",
	StateEchoOnly:      "ECHO_ONLY",
}

// String returns the state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// Expect is the reply shape a request waits for.
type Expect uint8

const (
	// ExpectStatus waits for OK or NG (set operations).
	ExpectStatus Expect = iota
	// ExpectData waits for a frame echoing the command and subcommand
	// (read operations). NG is also accepted.
	ExpectData
)
