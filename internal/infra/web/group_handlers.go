package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"telegram-email-bot/internal/domain"
	"telegram-email-bot/internal/usecase"
)

type groupUpsertRequest struct {
	Code      string `json:"code"`
	Title     string `json:"title"`
	Signature string `json:"signature"`
}

type templatePutRequest struct {
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
}

func groupsListHandler(groupUC usecase.GroupUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := groupUC.List(r.Context())
		if err != nil {
			http.Error(w, "Failed to list groups", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"items": groups})
	}
}

func groupsUpsertHandler(groupUC usecase.GroupUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req groupUpsertRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		g, err := groupUC.Upsert(r.Context(), req.Code, req.Title, req.Signature)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to save group", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(g)
	}
}

func groupsDeleteHandler(groupUC usecase.GroupUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if err := groupUC.Delete(r.Context(), code); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "Group not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to delete group", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func templatePutHandler(groupUC usecase.GroupUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		var req templatePutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if err := groupUC.SetTemplate(r.Context(), code, req.Subject, req.BodyHTML); err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "Group not found", http.StatusNotFound)
			case errors.Is(err, domain.ErrInvalidArgument):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "Failed to save template", http.StatusInternalServerError)
			}
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func templateGetHandler(groupUC usecase.GroupUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		tpl, err := groupUC.Template(r.Context(), code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.Error(w, "Template not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to load template", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(tpl)
	}
}
