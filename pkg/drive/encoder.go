package drive

const (
	// DefaultCounterBound is the range of a 32-bit hardware counter.
	DefaultCounterBound int64 = 1 << 32
	// DefaultMaxDelta is the largest plausible per sample delta in counts.
	DefaultMaxDelta int64 = 100000
)

// Delta computes raw - last on a counter wrapping at bound, assuming at
// most one wraparound between the samples.
func Delta(raw, last, bound int64) int64 {
	d := raw - last
	if bound <= 0 {
		return d
	}
	half := bound / 2
	if d > half {
		d -= bound
	} else if d < -half {
		d += bound
	}
	return d
}

// EncoderState is the accumulated state of both wheel counters.
type EncoderState struct {
	RawLeft, RawRight   int64
	LastLeft, LastRight int64
	// Ready is set once the baseline is recorded.
	Ready bool
}

// Counter turns raw counter samples into deltas.
type Counter struct {
	// Bound is the counter range, 0 disables wraparound correction.
	Bound int64
	// MaxDelta caps the magnitude of a delta, 0 disables the cap.
	MaxDelta int64

	state EncoderState
}

// NewCounter creates a Counter.
func NewCounter(bound, maxDelta int64) *Counter {
	return &Counter{Bound: bound, MaxDelta: maxDelta}
}

// State returns a snapshot of the counter state.
func (c *Counter) State() EncoderState {
	return c.state
}

// Restore replaces the counter state with a snapshot.
func (c *Counter) Restore(s EncoderState) {
	c.state = s
}

// Rebase forgets the baseline. The next sample becomes the new one.
func (c *Counter) Rebase() {
	c.state.Ready = false
}

// Sample accepts new raw counts. The first sample after creation or
// Rebase only records the baseline and returns zero deltas.
// When a delta is clamped by MaxDelta, the clamped deltas are returned
// together with ErrOverflowAmbiguous.
func (c *Counter) Sample(left, right int64) (dl, dr int64, err error) {
	if !c.state.Ready {
		c.state = EncoderState{
			RawLeft: left, RawRight: right,
			LastLeft: left, LastRight: right,
			Ready: true,
		}
		return 0, 0, nil
	}
	c.state.LastLeft, c.state.LastRight = c.state.RawLeft, c.state.RawRight
	c.state.RawLeft, c.state.RawRight = left, right
	dl = Delta(left, c.state.LastLeft, c.Bound)
	dr = Delta(right, c.state.LastRight, c.Bound)
	var clamped bool
	dl, clamped = c.clamp(dl)
	if clamped {
		err = ErrOverflowAmbiguous
	}
	dr, clamped = c.clamp(dr)
	if clamped {
		err = ErrOverflowAmbiguous
	}
	return
}

func (c *Counter) clamp(d int64) (int64, bool) {
	if c.MaxDelta <= 0 {
		return d, false
	}
	if d > c.MaxDelta {
		return c.MaxDelta, true
	}
	if d < -c.MaxDelta {
		return -c.MaxDelta, true
	}
	return d, false
}
