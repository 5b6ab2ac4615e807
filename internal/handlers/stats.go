package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/bookwell/bookwell-api/internal/repository"
)

type StatsHandler struct {
	statsRepo repository.StatsRepository
	logger    zerolog.Logger
}

func NewStatsHandler(statsRepo repository.StatsRepository, logger zerolog.Logger) *StatsHandler {
	return &StatsHandler{
		statsRepo: statsRepo,
		logger:    logger.With().Str("component", "stats_handler").Logger(),
	}
}

// AdminStats aggregates record counts across collections for the admin
// dashboard.
func (h *StatsHandler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsRepo.CountAll(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
