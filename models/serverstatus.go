package models

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type (
	// ServerStatus is the normalized result of a Java Edition status query.
	ServerStatus struct {
		Online          bool            `json:"online" yaml:"online"`
		Address         ServerAddress   `json:"address" yaml:"address"`
		VersionName     string          `json:"version_name" yaml:"version_name"`
		ProtocolVersion int32           `json:"protocol_version" yaml:"protocol_version"`
		PlayersOnline   int32           `json:"players_online" yaml:"players_online"`
		PlayersMax      int32           `json:"players_max" yaml:"players_max"`
		PlayerSample    []Sample        `json:"player_sample" yaml:"player_sample"`
		MOTD            string          `json:"motd" yaml:"motd"`
		Favicon         string          `json:"favicon,omitempty" yaml:"favicon,omitempty"`
		Latency         time.Duration   `json:"latency" yaml:"latency"`
		Raw             json.RawMessage `json:"raw_payload,omitempty" yaml:"-"`
	}

	// Sample is one entry of the server-chosen player sample.
	Sample struct {
		Name string `json:"name" yaml:"name"`
		ID   string `json:"id" yaml:"id"`
	}
)

const faviconPrefix = "data:image/png;base64,"

// UUID parses the sample id. Servers are free to send fake ids, so callers
// should expect an error for entries used as plain text lines.
func (s Sample) UUID() (uuid.UUID, error) {
	return uuid.Parse(s.ID)
}

// LatencyMillis returns the latency in milliseconds rounded to two decimals.
func (s *ServerStatus) LatencyMillis() float64 {
	return millis(s.Latency)
}

// PlayerNames returns the sample names in the order the server sent them.
func (s *ServerStatus) PlayerNames() []string {
	names := make([]string, 0, len(s.PlayerSample))
	for _, p := range s.PlayerSample {
		names = append(names, p.Name)
	}
	return names
}

// FindPlayer looks a player up in the sample, ignoring case.
func (s *ServerStatus) FindPlayer(name string) (Sample, bool) {
	if !s.Online {
		return Sample{}, false
	}
	for _, p := range s.PlayerSample {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Sample{}, false
}

// FaviconPNG decodes the base64 data URI carried in the status payload.
func (s *ServerStatus) FaviconPNG() ([]byte, error) {
	if s.Favicon == "" {
		return nil, errors.New("server has no favicon")
	}
	if !strings.HasPrefix(s.Favicon, faviconPrefix) {
		return nil, errors.New("favicon is not a png data uri")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(s.Favicon, faviconPrefix))
}

// FormatPlayerList renders sample names for display.
func FormatPlayerList(players []Sample) string {
	if len(players) == 0 {
		return "No players online"
	}
	names := make([]string, 0, len(players))
	for _, p := range players {
		if p.Name == "" {
			names = append(names, "Unknown")
			continue
		}
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

func millis(d time.Duration) float64 {
	return math.Round(float64(d)/float64(time.Millisecond)*100) / 100
}
