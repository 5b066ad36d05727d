package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"telegram-email-bot/internal/domain"
	"telegram-email-bot/internal/usecase"
)

// statsHandler serves per-group delivery numbers. ?days=N widens the window
// (default 1).
func statsHandler(statsUC usecase.StatsUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		days := 1
		if raw := r.URL.Query().Get("days"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "Invalid days parameter", http.StatusBadRequest)
				return
			}
			days = n
		}
		since := time.Now().UTC().AddDate(0, 0, -days)

		perGroup, err := statsUC.Summary(ctx, since)
		if err != nil {
			http.Error(w, "Failed to get stats", http.StatusInternalServerError)
			return
		}

		type groupStats struct {
			Sent   int `json:"sent"`
			Errors int `json:"errors"`
		}
		response := struct {
			Since  string                `json:"since"`
			Groups map[string]groupStats `json:"groups"`
		}{
			Since:  since.Format(time.RFC3339),
			Groups: make(map[string]groupStats, len(perGroup)),
		}
		for code, s := range perGroup {
			response.Groups[code] = groupStats{Sent: s.Sent, Errors: s.Errors}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

func blocklistListHandler(blocklistUC usecase.BlocklistUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, offset := 100, 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if raw := r.URL.Query().Get("offset"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
				offset = n
			}
		}

		total, err := blocklistUC.Count(ctx)
		if err != nil {
			http.Error(w, "Failed to count blocklist", http.StatusInternalServerError)
			return
		}
		entries, err := blocklistUC.List(ctx, limit, offset)
		if err != nil {
			http.Error(w, "Failed to list blocklist", http.StatusInternalServerError)
			return
		}

		response := struct {
			Total int         `json:"total"`
			Items interface{} `json:"items"`
		}{Total: total, Items: entries}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}

type blocklistAddRequest struct {
	Emails []string `json:"emails"`
	Reason string   `json:"reason"`
}

func blocklistAddHandler(blocklistUC usecase.BlocklistUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req blocklistAddRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if len(req.Emails) == 0 {
			http.Error(w, "emails is required", http.StatusBadRequest)
			return
		}
		if req.Reason == "" {
			req.Reason = "api"
		}

		added, err := blocklistUC.Block(ctx, req.Emails, req.Reason)
		if err != nil {
			http.Error(w, "Failed to update blocklist", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]int{"added": added})
	}
}

func blocklistDeleteHandler(blocklistUC usecase.BlocklistUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		email := chi.URLParam(r, "email")
		if email == "" {
			http.Error(w, "email is required", http.StatusBadRequest)
			return
		}
		if err := blocklistUC.Unblock(ctx, email); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "Not blocked", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to unblock", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
