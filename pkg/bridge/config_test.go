package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseCovariance(t *testing.T) {
	full := "1,0,0,0,0,0, 0,2,0,0,0,0, 0,0,3,0,0,0, 0,0,0,4,0,0, 0,0,0,0,5,0, 0,0,0,0,0,6"
	testCases := []struct {
		name   string
		input  string
		diag   []float64
		hasErr bool
	}{
		{name: "full", input: full, diag: []float64{1, 2, 3, 4, 5, 6}},
		{name: "diagonal", input: "1, 2, 3, 4, 5, 6", diag: []float64{1, 2, 3, 4, 5, 6}},
		{name: "wrong size", input: "1,2,3", hasErr: true},
		{name: "not a number", input: "1,2,3,4,5,x", hasErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := ParseCovariance(tc.input)
			if tc.hasErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, c, CovarianceSize)
			for i, v := range tc.diag {
				require.Equal(t, v, c[i*7])
			}
			var sum float64
			for _, v := range c {
				sum += v
			}
			require.Equal(t, 21.0, sum)
		})
	}
}

func TestCovarianceFlag(t *testing.T) {
	var c Covariance
	require.NoError(t, c.Set("1,2,3,4,5,6"))
	parsed, err := ParseCovariance(c.String())
	require.NoError(t, err)
	require.Equal(t, c, parsed)
	require.Error(t, c.Set("1"))
	require.Len(t, c, CovarianceSize)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero tread", func(c *Config) { c.Geometry.Tread = 0 }},
		{"zero resolution", func(c *Config) { c.EncoderResolution = 0 }},
		{"negative bound", func(c *Config) { c.EncoderBound = -1 }},
		{"zero rate", func(c *Config) { c.Rate = 0 }},
		{"recv timeout over period", func(c *Config) { c.RecvTimeout = 30 * time.Millisecond }},
		{"port out of range", func(c *Config) { c.DestPort = 70000 }},
		{"short covariance", func(c *Config) { c.PoseCovariance = c.PoseCovariance[:6] }},
	}
	require.NoError(t, NewConfig().Validate())
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			tc.modify(conf)
			require.Error(t, conf.Validate())
		})
	}
}

func TestNewConfigCopiesCovariance(t *testing.T) {
	conf := NewConfig()
	conf.PoseCovariance[0] = 42
	require.NotEqual(t, 42.0, Default().PoseCovariance[0])
	require.Equal(t, 20*time.Millisecond, conf.Period())
}
