package comm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

type parserTestStep struct {
	in     []byte
	frames [][]byte
	errs   int
}

type parserTestStepBuilder struct {
	steps []parserTestStep
}

func parserTestSteps() *parserTestStepBuilder {
	return &parserTestStepBuilder{}
}

func (b *parserTestStepBuilder) feed(in ...byte) *parserTestStepBuilder {
	b.steps = append(b.steps, parserTestStep{in: in})
	return b
}

func (b *parserTestStepBuilder) feedFrame(payload []byte) *parserTestStepBuilder {
	return b.feed(Frame(payload)...)
}

func (b *parserTestStepBuilder) frame(payload ...byte) *parserTestStepBuilder {
	s := &b.steps[len(b.steps)-1]
	s.frames = append(s.frames, payload)
	return b
}

func (b *parserTestStepBuilder) framingError() *parserTestStepBuilder {
	b.steps[len(b.steps)-1].errs++
	return b
}

func (b *parserTestStepBuilder) build() []parserTestStep {
	return b.steps
}

func TestParser(t *testing.T) {
	testCases := []struct {
		name  string
		steps []parserTestStep
	}{
		{
			name: "single frame",
			steps: parserTestSteps().
				feedFrame([]byte{1, 0, 2}).frame(1, 0, 2).
				build(),
		},
		{
			name: "idle delimiters",
			steps: parserTestSteps().
				feed(0, 0, 0).
				feedFrame([]byte{7}).frame(7).
				feed(0).
				build(),
		},
		{
			name: "split across reads",
			steps: parserTestSteps().
				feed(0x03, 0x11).
				feed(0x22, 0x02).
				feed(0x33, 0x00).frame(0x11, 0x22, 0x00, 0x33).
				build(),
		},
		{
			name: "back to back",
			steps: parserTestSteps().
				feed(0x02, 0x05, 0x00, 0x02, 0x06, 0x00).frame(5).frame(6).
				build(),
		},
		{
			name: "garbled frame resyncs",
			steps: parserTestSteps().
				feed(0x05, 0x11, 0x00).framingError().
				feedFrame([]byte{9, 9}).frame(9, 9).
				build(),
		},
		{
			name: "overrun discards until delimiter",
			steps: parserTestSteps().
				feed(bytes.Repeat([]byte{0x20}, MaxEncodedSize+10)...).framingError().
				feed(0x20, 0x20, 0x00).
				feedFrame([]byte{1}).frame(1).
				build(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var parser Parser
			for n, s := range tc.steps {
				var frames [][]byte
				errs := 0
				for _, pr := range parser.ParseBytes(s.in) {
					if pr.Err != nil {
						require.Truef(t, IsFramingError(pr.Err), "step[%d]: %v", n, pr.Err)
						errs++
						continue
					}
					frames = append(frames, pr.Frame)
				}
				require.Equalf(t, s.errs, errs, "step[%d] errors", n)
				require.Equalf(t, s.frames, frames, "step[%d] frames", n)
			}
		})
	}
}

func TestParserPacket(t *testing.T) {
	var parser Parser
	pkt := NewCountPacket(1, 2, 1000, -1000)
	results := parser.ParseBytes(Frame(pkt.Bytes()))
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	decoded, err := ParsePacket(results[0].Frame)
	require.NoError(t, err)
	require.Equal(t, pkt, decoded)
}

func TestParserReset(t *testing.T) {
	var parser Parser
	parser.ParseBytes([]byte{0x05, 0x11, 0x22})
	parser.Reset()
	results := parser.ParseBytes(Frame([]byte{3}))
	require.Len(t, results, 1)
	require.Equal(t, []byte{3}, results[0].Frame)

	parser.ParseBytes(bytes.Repeat([]byte{1}, MaxEncodedSize+1))
	require.True(t, parser.Discarding())
	parser.Reset()
	require.False(t, parser.Discarding())
}
