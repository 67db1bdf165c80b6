package hwid

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var macFormat = regexp.MustCompile(`^([0-9a-f]{2}:){5}[0-9a-f]{2}$`)

func TestProbeMACAddressFormat(t *testing.T) {
	mac, err := probeMACAddress()
	require.NoError(t, err)
	if mac == "" {
		t.Skip("no physical interface on this machine")
	}
	assert.Regexp(t, macFormat, mac, "MAC must render as canonical lower-hex")
}

func TestProbeCPUIDStable(t *testing.T) {
	first, err := probeCPUID()
	require.NoError(t, err)
	assert.NotEmpty(t, first, "the CPU probe always has a fallback value")

	second, err := probeCPUID()
	require.NoError(t, err)
	assert.Equal(t, first, second, "probe results must be stable within a process")
}

func TestIsVirtualInterface(t *testing.T) {
	tests := []struct {
		name    string
		virtual bool
	}{
		{"docker0", true},
		{"veth1a2b", true},
		{"br-4f5e", true},
		{"vboxnet0", true},
		{"utun3", true},
		{"tailscale0", true},
		{"eth0", false},
		{"enp3s0", false},
		{"wlan0", false},
		{"en0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.virtual, isVirtualInterface(tt.name))
		})
	}
}

func TestSanitizeSerial(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ABC123", "ABC123"},
		{"  ABC123\n", "ABC123"},
		{"To Be Filled By O.E.M.", ""},
		{"Default string", ""},
		{"None", ""},
		{"0", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeSerial(tt.in))
	}
}
