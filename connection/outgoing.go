package connection

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/skyezerfox/mcstatus/models"
	"github.com/skyezerfox/mcstatus/protocol"
)

// Report is the outcome of querying one configured server.
type Report struct {
	Server  *models.ServerConfig  `json:"server" yaml:"server"`
	Kind    protocol.Kind         `json:"-" yaml:"-"`
	Status  string                `json:"status" yaml:"status"`
	Java    *models.ServerStatus  `json:"java,omitempty" yaml:"java,omitempty"`
	Bedrock *models.BedrockStatus `json:"bedrock,omitempty" yaml:"bedrock,omitempty"`
	Err     error                 `json:"-" yaml:"-"`
	Error   string                `json:"error,omitempty" yaml:"error,omitempty"`

	// PlayerOnline reports whether Server.WatchPlayer is in the player sample.
	PlayerOnline bool `json:"player_online,omitempty" yaml:"player_online,omitempty"`
}

// Online reports whether the server answered.
func (r *Report) Online() bool { return r.Kind == protocol.KindOnline }

// query dispatches one server to the client of its edition.
func (m *Manager) query(s *models.ServerConfig) Report {
	r := Report{Server: s}
	start := time.Now()

	switch s.Edition {
	case models.EditionJava:
		r.Java, r.Err = m.queryJava(s.Address(), m.timeout)
	case models.EditionBedrock:
		r.Bedrock, r.Err = m.queryBedrock(s.Address(), m.timeout)
	default:
		r.Err = fmt.Errorf("server %s: unknown edition %q", s.Name, s.Edition)
	}

	r.Kind = protocol.KindOf(r.Err)
	r.Status = r.Kind.String()
	if r.Err != nil {
		r.Error = r.Err.Error()
	}
	r.PlayerOnline = watchPlayer(s, r.Java)

	log.Debug().
		Str("server", s.Name).
		Str("addr", s.Address().String()).
		Str("status", r.Status).
		Dur("took", time.Since(start)).
		Msg("Queried server")
	return r
}
