package connection

import (
	"time"

	"github.com/rs/zerolog/log"
)

// Watch runs QueryAll immediately and then every interval, handing each
// round to fn, until stop is closed.
func (m *Manager) Watch(interval time.Duration, stop <-chan struct{}, fn func([]Report)) {
	if interval <= 0 {
		fn(m.QueryAll())
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		fn(m.QueryAll())
		select {
		case <-stop:
			log.Debug().Msg("Stopping watch")
			return
		case <-ticker.C:
		}
	}
}
