package connection

import (
	"github.com/rs/zerolog/log"
	"github.com/skyezerfox/mcstatus/models"
)

// watchPlayer reports whether the configured watch player is in the sample.
// Bedrock pongs carry no player list, so only Java results can match.
func watchPlayer(s *models.ServerConfig, status *models.ServerStatus) bool {
	if s.WatchPlayer == "" || status == nil {
		return false
	}
	p, ok := status.FindPlayer(s.WatchPlayer)
	if ok {
		log.Debug().Str("server", s.Name).Str("username", p.Name).Str("id", p.ID).Msg("Watched player online")
	}
	return ok
}
