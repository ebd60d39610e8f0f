package playerdata

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ThomasWega/TG-Middleware/pkg/attribute"
	"github.com/ThomasWega/TG-Middleware/pkg/logger"
)

// API exposes the fetch and update operations over HTTP
type API struct {
	fetcher *Fetcher
	updater *Updater
	logger  *logger.Logger
}

// NewAPI creates an API over the given services
func NewAPI(f *Fetcher, u *Updater, l *logger.Logger) *API {
	return &API{fetcher: f, updater: u, logger: l}
}

// Handler returns the route handler to mount
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /players/by-name/{name}/uuid", a.handleFetchIdentity)
	mux.HandleFunc("GET /players/{uuid}/{attribute}", a.handleFetch)
	mux.HandleFunc("PUT /players/{uuid}/{attribute}", a.handleUpdate)
	return mux
}

type fetchResponse struct {
	Value string `json:"value"`
}

type identityResponse struct {
	UUID string `json:"uuid"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *API) handleFetch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("uuid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid uuid"})
		return
	}
	t, err := attribute.ParseType(r.PathValue("attribute"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	res := <-a.fetcher.Fetch(r.Context(), id, t)
	switch {
	case errors.Is(res.Err, attribute.ErrIdentityFetch):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: res.Err.Error()})
	case res.Err != nil:
		a.logger.Error("fetch failed", res.Err, zap.String("uuid", id.String()))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "fetch failed"})
	case !res.Found:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		writeJSON(w, http.StatusOK, fetchResponse{Value: res.Value})
	}
}

func (a *API) handleFetchIdentity(w http.ResponseWriter, r *http.Request) {
	res := <-a.fetcher.FetchIdentity(r.Context(), r.PathValue("name"))
	switch {
	case res.Err != nil:
		a.logger.Error("identity resolution failed", res.Err, zap.String("name", r.PathValue("name")))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "resolution failed"})
	case !res.Found:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		writeJSON(w, http.StatusOK, identityResponse{UUID: res.ID.String()})
	}
}

func (a *API) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("uuid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid uuid"})
		return
	}
	t, err := attribute.ParseType(r.PathValue("attribute"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1024))
	if err != nil || len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing value"})
		return
	}

	if err := a.updater.Update(r.Context(), id, t, string(body)); err != nil {
		var numErr *strconv.NumError
		if errors.Is(err, attribute.ErrIdentityUpdate) || errors.As(err, &numErr) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		a.logger.Error("update failed", err,
			zap.String("uuid", id.String()), zap.Stringer("type", t))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "update failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
