// Package tp357 implements the notification protocol of ThermoPro TP357
// family temperature and humidity sensors.
//
// The sensors advertise a local name starting with "TP357" and, once
// connected, stream measurements over a vendor characteristic. Each
// notification payload carries the temperature as a signed 16-bit
// little-endian value in tenths of a degree Celsius at bytes 3-4 and the
// relative humidity as an unsigned byte at byte 5.
package tp357

import (
	"encoding/binary"
	"strings"

	"github.com/go-ble/ble"
)

// NamePrefix is the advertised local name prefix shared by TP357-family
// sensors (TP357, TP357S, ...).
const NamePrefix = "TP357"

// NotifyCharUUID is the vendor characteristic that streams measurement
// notifications.
var NotifyCharUUID = ble.MustParse("00010203-0405-0607-0809-0a0b0c0d2b10")

// Reading is a single decoded measurement.
type Reading struct {
	Address     string  `json:"address"`
	Temperature float64 `json:"temperature"`
	Humidity    uint8   `json:"humidity"`
}

// MatchName reports whether an advertised local name belongs to a
// TP357-family sensor.
func MatchName(name string) bool {
	return strings.HasPrefix(name, NamePrefix)
}

// Decode parses a notification payload received from the sensor at address.
// Payloads shorter than 6 bytes are malformed and yield ok == false. Values
// outside the physically plausible range are passed through unchanged;
// consumers decide how to treat them.
func Decode(address string, payload []byte) (r Reading, ok bool) {
	if len(payload) < 6 {
		return Reading{}, false
	}
	raw := int16(binary.LittleEndian.Uint16(payload[3:5]))
	return Reading{
		Address:     address,
		Temperature: float64(raw) / 10.0,
		Humidity:    payload[5],
	}, true
}
