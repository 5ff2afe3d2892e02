package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/zheric/setgame/internal/game"
)

var errInvalidGameID = errors.New("invalid game id")

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("failed to write JSON response")
	}
}

// writeLookupError maps a failed session lookup to an HTTP status.
func writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errInvalidGameID):
		http.Error(w, "invalid game id", http.StatusBadRequest)
	case errors.Is(err, game.ErrGameNotFound):
		http.Error(w, "game not found", http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
