package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/evn/absen_backend/internal/pkg/response"
)

type FileOpener interface {
	Open(key, token string) (string, error)
}

// FilesHandler serves locally stored photos behind their signed URL token.
func FilesHandler(store FileOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, err := store.Open(chi.URLParam(r, "*"), r.URL.Query().Get("token"))
		if err != nil {
			response.RespondWithError(w, http.StatusForbidden, "Invalid or expired link")
			return
		}
		w.Header().Set("Cache-Control", "private, max-age=600")
		http.ServeFile(w, r, path)
	}
}
