// Package adminapi is the thin read-only HTTP surface spec.md scopes as
// "external collaborators" around the persistence layer (§1): listing
// and inspecting messages and MDNs, and downloading a message's stored
// payload. It adds nothing to C1-C8, it only exposes what
// internal/store already knows how to query.
package adminapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/as2gw/gateway/internal/as2model"
	"github.com/as2gw/gateway/internal/logging"
	"github.com/as2gw/gateway/internal/store"
	"github.com/rs/zerolog"
)

// API serves the admin/search/download endpoints.
type API struct {
	Store *store.Store
	log   zerolog.Logger
}

func New(st *store.Store) *API {
	return &API{Store: st, log: logging.WithComponent("adminapi")}
}

// Handler returns the mux to mount under a prefix such as "/admin/".
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/messages/", a.handleMessageSubpath)
	mux.HandleFunc("/admin/messages", a.handleListMessages)
	mux.HandleFunc("/admin/mdns/", a.handleGetMDN)
	return mux
}

func (a *API) handleListMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	direction := as2model.Direction(r.URL.Query().Get("direction"))
	limit := 50

	messages, err := a.Store.ListRecent(direction, limit)
	if err != nil {
		a.log.Error().Err(err).Msg("failed to list messages")
		http.Error(w, "failed to list messages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, messages)
}

// handleMessageSubpath dispatches "/admin/messages/{id}" and
// "/admin/messages/{id}/payload", since both share the messages/ prefix.
func (a *API) handleMessageSubpath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/admin/messages/")
	if rest == "" {
		http.NotFound(w, r)
		return
	}

	if id, ok := strings.CutSuffix(rest, "/payload"); ok {
		a.handleGetPayload(w, id)
		return
	}
	a.handleGetMessage(w, rest)
}

func (a *API) handleGetMessage(w http.ResponseWriter, id string) {
	msg, err := a.Store.GetMessage(id)
	if err != nil {
		a.log.Error().Err(err).Str("id", id).Msg("failed to load message")
		http.Error(w, "failed to load message", http.StatusInternalServerError)
		return
	}
	if msg == nil {
		http.Error(w, "message not found", http.StatusNotFound)
		return
	}
	writeJSON(w, msg)
}

func (a *API) handleGetPayload(w http.ResponseWriter, id string) {
	msg, err := a.Store.GetMessage(id)
	if err != nil {
		a.log.Error().Err(err).Str("id", id).Msg("failed to load message")
		http.Error(w, "failed to load message", http.StatusInternalServerError)
		return
	}
	if msg == nil || msg.PayloadID == "" {
		http.Error(w, "no payload for message", http.StatusNotFound)
		return
	}

	payload, err := a.Store.GetPayload(msg.PayloadID)
	if err != nil {
		a.log.Error().Err(err).Str("id", id).Msg("failed to load payload record")
		http.Error(w, "failed to load payload", http.StatusInternalServerError)
		return
	}
	if payload == nil {
		http.Error(w, "payload not found", http.StatusNotFound)
		return
	}

	data, err := a.Store.Artifact.ReadFile(payload.FilePath)
	if err != nil {
		a.log.Error().Err(err).Str("id", id).Msg("failed to read payload artifact")
		http.Error(w, "failed to read payload", http.StatusInternalServerError)
		return
	}

	contentType := payload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+payload.Name+`"`)
	w.Write(data)
}

func (a *API) handleGetMDN(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	messageID := strings.TrimPrefix(r.URL.Path, "/admin/mdns/")
	if messageID == "" {
		http.NotFound(w, r)
		return
	}

	mdn, err := a.Store.GetMDN(messageID)
	if err != nil {
		a.log.Error().Err(err).Str("messageID", messageID).Msg("failed to load mdn")
		http.Error(w, "failed to load mdn", http.StatusInternalServerError)
		return
	}
	if mdn == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, mdn)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}
