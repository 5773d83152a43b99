package civ

// Scanner splits a CI-V byte stream into raw frames.
//
// Bytes before a preamble are discarded. A collision jam byte or a new
// preamble before the terminator aborts the partial frame. Unterminated
// input longer than MaxFrameLen is dropped.
type Scanner struct {
	buf     []byte
	dropped int
}

// Feed appends received bytes.
func (s *Scanner) Feed(p []byte) {
	s.buf = append(s.buf, p...)
}

// Next returns the next complete raw frame, or false if more input is needed.
func (s *Scanner) Next() ([]byte, bool) {
	for {
		start := indexPreamble(s.buf)
		if start < 0 {
			// A trailing lone FE may be the first half of a preamble.
			if n := len(s.buf); n > 0 && s.buf[n-1] == Preamble {
				s.buf = append(s.buf[:0], Preamble)
			} else {
				s.buf = s.buf[:0]
			}
			return nil, false
		}
		s.buf = s.buf[start:]

		// Some rigs send more than two preamble bytes.
		for len(s.buf) > 2 && s.buf[2] == Preamble {
			s.buf = s.buf[1:]
		}

		body := s.buf[2:]
		i := indexBreak(body)
		if i < 0 {
			if len(s.buf) > MaxFrameLen {
				s.buf = s.buf[2:]
				s.dropped++
				continue
			}
			return nil, false
		}

		switch body[i] {
		case Terminator:
			n := 2 + i + 1
			frame := make([]byte, n)
			copy(frame, s.buf[:n])
			s.buf = s.buf[n:]
			return frame, true
		case Collision:
			s.buf = s.buf[2+i+1:]
		default: // preamble of the next frame
			s.buf = s.buf[2+i:]
		}
		s.dropped++
	}
}

// Dropped returns how many partial frames were discarded.
func (s *Scanner) Dropped() int {
	return s.dropped
}

// Buffered returns the number of bytes waiting for a terminator.
func (s *Scanner) Buffered() int {
	return len(s.buf)
}

// Reset discards buffered input.
func (s *Scanner) Reset() {
	s.buf = s.buf[:0]
}

func indexPreamble(b []byte) int {
	for i := 0; i+1 < len(b); i++ {
		if b[i] == Preamble && b[i+1] == Preamble {
			return i
		}
	}
	return -1
}

func indexBreak(b []byte) int {
	for i, c := range b {
		if c == Terminator || c == Collision || c == Preamble {
			return i
		}
	}
	return -1
}
