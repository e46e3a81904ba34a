// Package engine wires the inbound processor, MDN engine, outbound
// builder, and stores together behind a single HTTP entry point (spec
// §1, §6), grounded on pyas2's as2receive view: distinguish an
// async-MDN POST from a business message, run the pipeline, persist
// a Message record regardless of outcome, and respond with a sync MDN
// or a bare acknowledgement.
package engine

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/as2gw/gateway/internal/as2model"
	"github.com/as2gw/gateway/internal/hooks"
	"github.com/as2gw/gateway/internal/inbound"
	"github.com/as2gw/gateway/internal/logging"
	"github.com/as2gw/gateway/internal/mdnengine"
	"github.com/as2gw/gateway/internal/mimecodec"
	"github.com/as2gw/gateway/internal/metrics"
	"github.com/as2gw/gateway/internal/profile"
	"github.com/as2gw/gateway/internal/secrets"
	"github.com/as2gw/gateway/internal/store"
	"github.com/rs/zerolog"
)

// Engine is the process-wide AS2 receive orchestrator.
type Engine struct {
	Processor *inbound.Processor
	Store     *store.Store
	Profile   *profile.Store
	Secrets   *secrets.Store
	log       zerolog.Logger
}

func New(st *store.Store, prof *profile.Store, sec *secrets.Store) *Engine {
	return &Engine{
		Processor: &inbound.Processor{Profile: prof, Store: st, Secrets: sec},
		Store:     st,
		Profile:   prof,
		Secrets:   sec,
		log:       logging.WithComponent("engine"),
	}
}

// Handler returns the HTTP handler mounted at the AS2 receive URI.
func (e *Engine) Handler() http.Handler {
	return http.HandlerFunc(e.handle)
}

func (e *Engine) handle(w http.ResponseWriter, r *http.Request) {
	e.log.Info().Str("remoteAddr", r.RemoteAddr).Str("method", r.Method).Str("path", r.URL.Path).Msg("as2 request received")

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "text/plain; charset=us-ascii")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("AS2 gateway. POST an AS2 business message or MDN to this URI.\n"))
		return
	case http.MethodOptions:
		w.Header().Set("Allow", "POST, GET")
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	asFrom := r.Header.Get("AS2-From")
	asTo := r.Header.Get("AS2-To")
	messageID := strings.Trim(r.Header.Get("Message-ID"), "<>")

	if asFrom == "" || asTo == "" || messageID == "" {
		e.log.Error().Str("remoteAddr", r.RemoteAddr).Msg("invalid as2 message: missing as2-from/as2-to/message-id")
		http.Error(w, "invalid AS2 message received", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	headers := collectHeaders(r)

	if isAsyncMDN(headers, body) {
		e.handleAsyncMDN(w, headers, body)
		return
	}

	e.handleBusinessMessage(w, headers, body, messageID)
}

func collectHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string, len(r.Header)+1)
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	headers["content-type"] = r.Header.Get("Content-Type")
	return headers
}

// isAsyncMDN distinguishes an incoming async MDN from a business
// message, walking the top-level part the way pyas2's as2receive view
// does: a bare multipart/report is always an MDN; a multipart/signed
// request is one only if its payload itself carries a multipart/report,
// since partners sign both business messages and MDN receipts the same
// way.
func isAsyncMDN(headers map[string]string, body []byte) bool {
	ct := headerValue(headers, "content-type")
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	if strings.EqualFold(mediaType, "multipart/report") {
		return true
	}
	if strings.EqualFold(mediaType, "multipart/signed") && strings.Contains(params["protocol"], "pkcs7-signature") {
		return strings.Contains(string(body), "multipart/report")
	}
	return false
}

func (e *Engine) handleAsyncMDN(w http.ResponseWriter, headers map[string]string, body []byte) {
	start := time.Now()
	defer func() { metrics.ProcessingDuration.Observe(time.Since(start).Seconds()) }()

	result, err := mdnengine.Parse(headers, body, false, "", "")
	if err != nil {
		e.log.Error().Err(err).Msg("failed to parse async mdn, treating as business message")
		messageID := strings.Trim(headerValue(headers, "message-id"), "<>")
		e.handleBusinessMessage(w, headers, body, messageID)
		return
	}

	originalID := extractOriginalMessageID(body)
	msg, err := e.Store.FindByMessageID(originalID, as2model.DirectionOut)
	if err != nil || msg == nil {
		e.log.Error().Str("originalMessageID", originalID).Msg("async mdn received for unknown message")
		http.Error(w, "unknown AS2 MDN received, will not be processed", http.StatusNotFound)
		return
	}

	// Parse again against the MIC recorded at send time so a MIC mismatch
	// is reconciled as a warning.
	if withMIC, perr := mdnengine.Parse(headers, body, false, msg.MIC, msg.MICAlg); perr == nil {
		result = withMIC
	}

	msg.Status, msg.AdvStatus = mdnengine.Reconcile(result, nil)

	if err := e.Store.UpdateMessage(msg); err != nil {
		e.log.Error().Err(err).Str("messageID", msg.MessageID).Msg("failed to persist async mdn outcome")
	}
	_ = e.Store.AppendLog(msg.ID, as2model.LogSuccess, "processed incoming asynchronous mdn")

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("AS2 ASYNC MDN has been received"))
}

func extractOriginalMessageID(body []byte) string {
	v := mimecodec.ExtractHeader(body, "Original-Message-ID")
	return strings.Trim(strings.TrimSpace(v), "<>")
}

func (e *Engine) handleBusinessMessage(w http.ResponseWriter, headers map[string]string, body []byte, messageID string) {
	start := time.Now()
	defer func() { metrics.ProcessingDuration.Observe(time.Since(start).Seconds()) }()

	result, err := e.Processor.Process(&inbound.Request{Headers: headers, Body: body})
	if err != nil {
		e.log.Error().Err(err).Str("messageID", messageID).Msg("unexpected error processing inbound message")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	msg := result.Message
	metrics.MessagesProcessed.WithLabelValues("IN", string(msg.Status)).Inc()
	if msg.Status == as2model.StatusError {
		metrics.ErrorsByKind.WithLabelValues(msg.AdvStatus).Inc()
	}

	if !result.Duplicate && result.Organization != nil && result.Partner != nil {
		if err := e.Store.CreateMessage(msg); err != nil {
			e.log.Error().Err(err).Str("messageID", messageID).Msg("failed to persist message record")
		}
		if msg.Status == as2model.StatusSuccess {
			e.persistPayload(result)
		}
		_ = e.Store.AppendLog(msg.ID, toLogStatus(msg.Status), firstNonEmpty(msg.StatusMessage, "message processed"))
	} else if result.Duplicate {
		if err := e.Store.CreateMessage(msg); err != nil {
			e.log.Error().Err(err).Str("messageID", messageID).Msg("failed to persist duplicate message record")
		}
	}

	e.respondWithMDN(w, result, headers, body)

	if msg.Status == as2model.StatusSuccess && result.Partner != nil && result.Partner.CmdReceive != "" {
		_ = hooks.Run(result.Partner.CmdReceive, hooks.Vars{
			Filename:  result.Filename,
			Sender:    result.Partner.AS2Name,
			Receiver:  result.Organization.AS2Name,
			MessageID: msg.MessageID,
		})
	}
}

func (e *Engine) persistPayload(result *inbound.Result) {
	inboxPath := e.Store.Artifact.InboxPath(result.Organization.AS2Name, result.Partner.AS2Name, result.Filename)
	if _, err := e.Store.Artifact.WriteFile(inboxPath, result.PayloadBytes); err != nil {
		e.log.Error().Err(err).Str("messageID", result.Message.MessageID).Msg("failed to write inbox artifact")
		return
	}
	storePath := e.Store.Artifact.PayloadStorePath(result.Message.MessageID, true)
	if _, err := e.Store.Artifact.WriteFile(storePath, result.PayloadBytes); err != nil {
		e.log.Error().Err(err).Str("messageID", result.Message.MessageID).Msg("failed to write payload store artifact")
		return
	}
	payload := &as2model.Payload{
		MessageID:   result.Message.ID,
		Name:        result.Filename,
		ContentType: result.Partner.ContentType,
		FilePath:    storePath,
	}
	if err := e.Store.CreatePayload(payload); err != nil {
		e.log.Error().Err(err).Str("messageID", result.Message.MessageID).Msg("failed to link payload record")
		return
	}
	result.Message.PayloadID = payload.ID
	if err := e.Store.UpdateMessage(result.Message); err != nil {
		e.log.Error().Err(err).Str("messageID", result.Message.MessageID).Msg("failed to link payload to message")
	}
}

func (e *Engine) respondWithMDN(w http.ResponseWriter, result *inbound.Result, reqHeaders map[string]string, reqBody []byte) {
	msg := result.Message

	if !mdnengine.ReceiptRequested(reqHeaders) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("AS2 message has been received"))
		return
	}

	outcome := mdnengine.Outcome{
		Success:       msg.Status == as2model.StatusSuccess,
		AdvStatus:     msg.AdvStatus,
		StatusMessage: msg.StatusMessage,
	}

	var signer *mdnengine.SigningCert
	var signDigestAlg string
	signingRequested := false
	if result.Organization != nil {
		signingRequested = strings.Contains(strings.ToLower(headerValue(reqHeaders, "disposition-notification-options")), "signed-receipt-protocol")
		if signingRequested {
			cert, err := profile.ResolveCertificate(e.Profile, e.Secrets, result.Organization.SignatureCertID)
			if err == nil && cert != nil {
				signer = &mdnengine.SigningCert{Chain: cert.Chain, PrivateKey: cert.PrivateKey}
				signDigestAlg = "sha256"
			}
		}
	}

	confirmation := "The AS2 message has been received."
	if result.Organization != nil && result.Organization.ConfirmationMessage != "" {
		confirmation = result.Organization.ConfirmationMessage
	}

	buildResult, err := mdnengine.Build(mdnengine.BuildInput{
		RequestHeaders:   reqHeaders,
		ConfirmationText: confirmation,
		Outcome:          outcome,
		MIC:              msg.MIC,
		MICAlg:           msg.MICAlg,
		Signed:           msg.Signed,
		SigningRequested: signingRequested,
		Signer:           signer,
		SignDigestAlg:    signDigestAlg,
	})
	if err != nil {
		e.log.Error().Err(err).Str("messageID", msg.MessageID).Msg("failed to build mdn")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("AS2 message has been received"))
		return
	}

	asyncURL := mdnengine.AsyncReturnURL(reqHeaders)
	if asyncURL != "" {
		e.storeAsyncMDN(msg, buildResult, asyncURL)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("AS2 message has been received, asynchronous MDN will be sent"))
		return
	}

	for k, v := range buildResult.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buildResult.Body)
	metrics.MDNsSent.WithLabelValues("sync", string(msg.Status)).Inc()
}

func (e *Engine) storeAsyncMDN(msg *as2model.Message, built *mdnengine.BuildResult, returnURL string) {
	storePath := e.Store.Artifact.MDNStorePath(msg.MessageID, true)
	if _, err := e.Store.Artifact.WriteFile(storePath, built.Body); err != nil {
		e.log.Error().Err(err).Str("messageID", msg.MessageID).Msg("failed to write async mdn artifact")
		return
	}
	mdn := &as2model.MDN{
		MessageID: msg.MessageID,
		Timestamp: time.Now(),
		Status:    as2model.MDNStatusPending,
		FilePath:  storePath,
		Headers:   joinHeaders(built.Headers),
		ReturnURL: returnURL,
		Signed:    built.Signed,
	}
	if err := e.Store.CreateMDN(mdn); err != nil {
		e.log.Error().Err(err).Str("messageID", msg.MessageID).Msg("failed to persist pending async mdn")
	}
	metrics.MDNsSent.WithLabelValues("async", string(msg.Status)).Inc()
}

func joinHeaders(headers map[string]string) string {
	var b strings.Builder
	for k, v := range headers {
		b.WriteString(fmt.Sprintf("%s: %s\n", k, v))
	}
	return b.String()
}

func toLogStatus(status as2model.Status) as2model.LogStatus {
	switch status {
	case as2model.StatusError:
		return as2model.LogError
	case as2model.StatusWarning:
		return as2model.LogWarning
	default:
		return as2model.LogSuccess
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func headerValue(headers map[string]string, name string) string {
	name = strings.ToLower(name)
	for k, v := range headers {
		if strings.ToLower(k) == name {
			return v
		}
	}
	return ""
}
