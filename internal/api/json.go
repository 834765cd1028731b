package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/postindex/internal/catalog"
	"github.com/starford/postindex/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

type postListResponse struct {
	Posts []models.Post `json:"posts"`
	Total int           `json:"total"`
}

type searchResponse struct {
	Results []catalog.SearchResult `json:"results"`
}
