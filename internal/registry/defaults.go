package registry

import "github.com/srg/tpmon/internal/actuator"

// DefaultRooms is the built-in room list used when no valid persisted state
// exists.
func DefaultRooms() []*Room {
	return []*Room{
		{Name: "Galerie", SensorAddress: "10:76:36:76:66:1E"},
		{
			Name:          "Schlafzimmer",
			SensorAddress: "D1:D7:3F:67:8C:EF",
			Actuator: &actuator.Actuator{
				Endpoint: "http://shellypro3-ece334ed1928.local/relay/2",
				Mode:     actuator.Manual{Level: 3},
			},
		},
		{Name: "Kinderzimmer", SensorAddress: "D2:7C:11:BC:05:E3"},
		{Name: "Küche/Diele", SensorAddress: "C9:B5:08:81:6A:AC"},
		{Name: "Wohnzimmer", SensorAddress: "FA:74:A7:99:89:04"},
		{Name: "Bäckerei", SensorAddress: "10:76:36:C2:B7:87"},
	}
}
