package server

import (
	"log/slog"
	"net/http"

	"github.com/raggify/raggify-go/internal/logging"
)

// handleReload handles GET /reload: re-reads config from disk and rebuilds
// every downstream dependency (spec §4.6 "build() releases all and
// re-resolves from disk config"). A config error is a config-error per
// spec §7's taxonomy and surfaces as 500 here.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if err := s.rt.Build(r.Context()); err != nil {
		log.Error("reload failed", slog.Any("error", err))
		writeJSONError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	s.setPingers(buildPingers(s.rt))
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
