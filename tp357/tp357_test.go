package tp357

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		payload     []byte
		wantOK      bool
		temperature float64
		humidity    uint8
	}{
		{
			name:        "typical room reading",
			payload:     []byte{0xC2, 0x00, 0x00, 0xE8, 0x00, 0x2C},
			wantOK:      true,
			temperature: 23.2,
			humidity:    44,
		},
		{
			name:        "negative temperature",
			payload:     []byte{0xC2, 0x00, 0x00, 0xF6, 0xFF, 0x3B},
			wantOK:      true,
			temperature: -1.0,
			humidity:    59,
		},
		{
			name:        "zero degrees",
			payload:     []byte{0xC2, 0x00, 0x00, 0x00, 0x00, 0x00},
			wantOK:      true,
			temperature: 0.0,
			humidity:    0,
		},
		{
			name:        "implausible values pass through",
			payload:     []byte{0xC2, 0x00, 0x00, 0xD0, 0x07, 0xFF},
			wantOK:      true,
			temperature: 200.0,
			humidity:    255,
		},
		{
			name:        "trailing bytes ignored",
			payload:     []byte{0xC2, 0x00, 0x00, 0xE8, 0x00, 0x2C, 0x12, 0x34},
			wantOK:      true,
			temperature: 23.2,
			humidity:    44,
		},
		{
			name:    "empty payload",
			payload: []byte{},
			wantOK:  false,
		},
		{
			name:    "nil payload",
			payload: nil,
			wantOK:  false,
		},
		{
			name:    "five bytes is one short",
			payload: []byte{0xC2, 0x00, 0x00, 0xE8, 0x00},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := Decode("AA:BB:CC:DD:EE:FF", tt.payload)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, Reading{}, r)
				return
			}
			assert.Equal(t, "AA:BB:CC:DD:EE:FF", r.Address)
			assert.InDelta(t, tt.temperature, r.Temperature, 0.0001)
			assert.Equal(t, tt.humidity, r.Humidity)
		})
	}
}

func TestDecodeRejectsAllShortLengths(t *testing.T) {
	payload := []byte{0xC2, 0x00, 0x00, 0xE8, 0x00, 0x2C}
	for n := 0; n < 6; n++ {
		_, ok := Decode("AA:BB:CC:DD:EE:FF", payload[:n])
		assert.False(t, ok, "payload of length %d must be rejected", n)
	}
}

func TestMatchName(t *testing.T) {
	assert.True(t, MatchName("TP357"))
	assert.True(t, MatchName("TP357S (1C2B)"))
	assert.True(t, MatchName("TP357 (5E80)"))
	assert.False(t, MatchName("TP358"))
	assert.False(t, MatchName("Flower care"))
	assert.False(t, MatchName(""))
}

func TestNotifyCharUUID(t *testing.T) {
	assert.Equal(t, "000102030405060708090a0b0c0d2b10", NotifyCharUUID.String())
}
