package mcu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/cugo.go/pkg/l0/comm"
)

func TestWheelAdvance(t *testing.T) {
	testCases := []struct {
		name    string
		wheel   Wheel
		after   time.Duration
		revs    float64
		expects float64
	}{
		{
			name:    "no accel",
			wheel:   Wheel{Target: 60},
			after:   time.Second,
			revs:    1,
			expects: 60,
		},
		{
			name:    "no accel reverse",
			wheel:   Wheel{Target: -60},
			after:   time.Second,
			revs:    -1,
			expects: -60,
		},
		{
			name:    "before accel ends",
			wheel:   Wheel{Accel: 60, Target: 120},
			after:   time.Second,
			revs:    0.5,
			expects: 60,
		},
		{
			name:    "after accel ends",
			wheel:   Wheel{Accel: 60, Target: 60},
			after:   2 * time.Second,
			revs:    1.5,
			expects: 60,
		},
		{
			name:    "decelerate",
			wheel:   Wheel{Accel: 60, RPM: 60},
			after:   2 * time.Second,
			revs:    0.5,
			expects: 0,
		},
		{
			name:    "no time",
			wheel:   Wheel{Target: 60},
			expects: 0,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := tc.wheel
			require.InDelta(t, tc.revs, w.Advance(tc.after), 1e-9)
			require.InDelta(t, tc.expects, w.RPM, 1e-9)
		})
	}
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func TestHandle(t *testing.T) {
	clk := &clock{now: time.Unix(100, 0)}
	m := New(100, 2, 0, 10, -10)
	m.Now = clk.Now

	reply, err := m.Handle(comm.NewRPMPacket(1, 2, 60, -120).Bytes())
	require.NoError(t, err)
	pkt, err := comm.ParsePacket(reply)
	require.NoError(t, err)
	require.Equal(t, uint16(2), pkt.SourcePort)
	require.Equal(t, uint16(1), pkt.DestPort)
	l, r := pkt.Counts()
	require.Equal(t, int32(10), l)
	require.Equal(t, int32(-10), r)

	clk.now = clk.now.Add(time.Second)
	reply, err = m.Handle(comm.NewRPMPacket(1, 2, 0, 0).Bytes())
	require.NoError(t, err)
	pkt, err = comm.ParsePacket(reply)
	require.NoError(t, err)
	l, r = pkt.Counts()
	// 1 motor rev = 0.5 wheel rev = 50 counts
	require.Equal(t, int32(60), l)
	require.Equal(t, int32(-110), r)

	_, err = m.Handle([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestCountsWrap(t *testing.T) {
	clk := &clock{now: time.Unix(100, 0)}
	m := New(1000, 1, 0, 2147483640, 0)
	m.Now = clk.Now
	m.Handle(comm.NewRPMPacket(1, 2, 60, 0).Bytes())
	clk.now = clk.now.Add(time.Second)
	m.Handle(comm.NewRPMPacket(1, 2, 60, 0).Bytes())
	l, _ := m.Counts()
	require.Equal(t, int32(-2147483648+992), l)
}

func TestFaults(t *testing.T) {
	m := New(100, 1, 0, 0, 0)
	m.Faults = Faults{DropEvery: 2, CorruptEvery: 3}
	cmd := comm.NewRPMPacket(1, 2, 0, 0).Bytes()

	reply, err := m.Handle(cmd)
	require.NoError(t, err)
	require.NotNil(t, reply)
	reply, err = m.Handle(cmd)
	require.NoError(t, err)
	require.Nil(t, reply)
	reply, err = m.Handle(cmd)
	require.NoError(t, err)
	_, err = comm.ParsePacket(reply)
	require.True(t, comm.IsChecksumError(err))
}
