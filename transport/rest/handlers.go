package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/paritygrid/parity-grid-backend/internal/repository"
)

const defaultRecentLimit = 10

type statsProvider interface {
	Stats() (rooms, sessions int)
}

type matchLister interface {
	ListRecent(ctx context.Context, limit int64) ([]*repository.MatchResult, error)
}

func pingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func statsHandler(stats statsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		rooms, sessions := stats.Stats()

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]int{
			"rooms":    rooms,
			"sessions": sessions,
		}); err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}

func recentMatchesHandler(matches matchLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := int64(defaultRecentLimit)
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		results, err := matches.ListRecent(r.Context(), limit)
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err = json.NewEncoder(w).Encode(results); err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}
