package comm

// Parser splits a byte stream into COBS frames and decodes them.
type Parser struct {
	buf        []byte
	discarding bool
}

// ParseResult indicates the result after one parsing step.
// At most one of Frame and Err is set.
type ParseResult struct {
	Frame []byte
	Err   error
}

// Discarding indicates the parser is dropping bytes until the next delimiter.
func (p *Parser) Discarding() bool {
	return p.discarding
}

// Reset drops any partially received frame.
func (p *Parser) Reset() {
	p.buf, p.discarding = p.buf[:0], false
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	if b != FrameDelimiter {
		if p.discarding {
			return
		}
		if len(p.buf) >= MaxEncodedSize {
			p.buf, p.discarding = p.buf[:0], true
			pr.Err = &FramingError{Reason: "frame overrun"}
			return
		}
		p.buf = append(p.buf, b)
		return
	}
	if p.discarding {
		p.discarding = false
		return
	}
	if len(p.buf) == 0 {
		// idle delimiters
		return
	}
	frame, err := DecodeCOBS(p.buf)
	p.buf = p.buf[:0]
	switch {
	case err != nil:
		pr.Err = err
	case len(frame) > MaxFrameSize:
		pr.Err = &FramingError{Reason: "frame too large"}
	default:
		pr.Frame = frame
	}
	return
}

// ParseBytes consumes b and returns the results which carry a frame or
// an error.
func (p *Parser) ParseBytes(b []byte) (results []ParseResult) {
	for _, c := range b {
		if pr := p.Parse(c); pr.Frame != nil || pr.Err != nil {
			results = append(results, pr)
		}
	}
	return
}
