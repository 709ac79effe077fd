package models

import "time"

// BedrockStatus is the normalized result of a Bedrock Edition unconnected ping.
type BedrockStatus struct {
	Online          bool          `json:"online" yaml:"online"`
	Address         ServerAddress `json:"address" yaml:"address"`
	Edition         string        `json:"edition" yaml:"edition"`
	MOTD            string        `json:"motd" yaml:"motd"`
	ProtocolVersion int32         `json:"protocol_version" yaml:"protocol_version"`
	VersionName     string        `json:"version_name" yaml:"version_name"`
	PlayersOnline   int32         `json:"players_online" yaml:"players_online"`
	PlayersMax      int32         `json:"players_max" yaml:"players_max"`
	ServerGUID      uint64        `json:"server_guid" yaml:"server_guid"`
	ServerID        string        `json:"server_id,omitempty" yaml:"server_id,omitempty"`
	LevelName       string        `json:"level_name,omitempty" yaml:"level_name,omitempty"`
	Gamemode        string        `json:"gamemode" yaml:"gamemode"`
	PortIPv4        uint16        `json:"port_ipv4" yaml:"port_ipv4"`
	PortIPv6        uint16        `json:"port_ipv6" yaml:"port_ipv6"`
	Latency         time.Duration `json:"latency" yaml:"latency"`
}

// LatencyMillis returns the ping round trip in milliseconds rounded to two decimals.
func (s *BedrockStatus) LatencyMillis() float64 {
	return millis(s.Latency)
}
