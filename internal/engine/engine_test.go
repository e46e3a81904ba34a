package engine_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/as2gw/gateway/internal/as2model"
	"github.com/as2gw/gateway/internal/database"
	"github.com/as2gw/gateway/internal/engine"
	"github.com/as2gw/gateway/internal/outbound"
	"github.com/as2gw/gateway/internal/profile"
	"github.com/as2gw/gateway/internal/secrets"
	"github.com/as2gw/gateway/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })

	st := store.NewStore(db.DB, t.TempDir())
	prof := profile.NewStore(db.DB, t.TempDir())
	sec, err := secrets.NewStore(db.DB, t.TempDir())
	require.NoError(t, err)

	return engine.New(st, prof, sec)
}

func plainRequestBody(t *testing.T, disposition bool) (map[string]string, []byte) {
	t.Helper()
	partner := &as2model.Partner{AS2Name: "RECEIVERORG", ContentType: "application/edi-x12", Subject: "test"}
	if disposition {
		partner.MDNRequested = true
		partner.MDNMode = as2model.MDNModeSync
	}
	built, err := outbound.Build(outbound.BuildInput{
		Org:          &as2model.Organization{AS2Name: "SENDERORG"},
		Partner:      partner,
		PayloadBytes: []byte("ISA*00*SAMPLE*"),
		Filename:     "doc.edi",
		MessageID:    "engine-test-1@senderorg",
	})
	require.NoError(t, err)
	return built.Headers, built.Body
}

func postRequest(headers map[string]string, body []byte) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/as2/receive", bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func TestHandler_GetReturnsPlainTextHelp(t *testing.T) {
	e := newTestEngine(t)
	req := httptest.NewRequest(http.MethodGet, "/as2/receive", nil)
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.NotEmpty(t, rec.Body.String())
}

func TestHandler_OptionsReturnsAllowHeader(t *testing.T) {
	e := newTestEngine(t)
	req := httptest.NewRequest(http.MethodOptions, "/as2/receive", nil)
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "POST, GET", rec.Header().Get("Allow"))
}

func TestHandler_RejectsOtherMethods(t *testing.T) {
	e := newTestEngine(t)
	req := httptest.NewRequest(http.MethodDelete, "/as2/receive", nil)
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_RejectsMissingHeaders(t *testing.T) {
	e := newTestEngine(t)
	req := httptest.NewRequest(http.MethodPost, "/as2/receive", bytes.NewReader([]byte("body")))
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_UnknownPartnerStillAcknowledges(t *testing.T) {
	e := newTestEngine(t)
	headers, body := plainRequestBody(t, false)

	req := postRequest(headers, body)
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_KnownPartnerNoMDNRequested(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Profile.CreateOrganization(&as2model.Organization{AS2Name: "RECEIVERORG", Name: "Receiver"}))
	require.NoError(t, e.Profile.CreatePartner(&as2model.Partner{AS2Name: "SENDERORG", Name: "Sender", TargetURL: "https://sender.example.com"}))

	headers, body := plainRequestBody(t, false)
	req := postRequest(headers, body)
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "AS2 message has been received")

	msg, err := e.Store.FindByMessageID("engine-test-1@senderorg", as2model.DirectionIn)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, as2model.StatusSuccess, msg.Status)
}

func TestHandler_KnownPartnerSyncMDNRequested(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Profile.CreateOrganization(&as2model.Organization{AS2Name: "RECEIVERORG", Name: "Receiver"}))
	require.NoError(t, e.Profile.CreatePartner(&as2model.Partner{AS2Name: "SENDERORG", Name: "Sender", TargetURL: "https://sender.example.com"}))

	headers, body := plainRequestBody(t, true)
	req := postRequest(headers, body)
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("as2-from"), "RECEIVERORG")
	assert.NotEmpty(t, rec.Body.Bytes())
}
