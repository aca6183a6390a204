package services

import (
	"github.com/velvetlabs/livepoll/pkg/internal/realtime"

	"github.com/rs/zerolog/log"
)

// DoAutoHubMaintenance sweeps dead connections out of the live set so a
// viewer that vanished without a close frame cannot pin memory forever.
func DoAutoHubMaintenance() {
	swept := realtime.Default().Sweep()
	if swept > 0 {
		log.Info().Int("count", swept).Msg("Swept dead live connections.")
	}

	if count, err := CountPolls(); err == nil {
		log.Debug().Int64("polls", count).Int("live", realtime.Default().Len()).Msg("Hub maintenance finished.")
	}
}
