// Package coordinator runs the periodic background sweeps of the AS2
// engine (spec §4.8): async MDN delivery, async MDN timeout, general send
// retry, and archive pruning. Modeled on the teacher's sync scheduler —
// a single ctx/cancel/wg-guarded ticker loop that runs all four sweeps on
// each tick.
package coordinator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/as2gw/gateway/internal/as2model"
	"github.com/as2gw/gateway/internal/logging"
	"github.com/as2gw/gateway/internal/mdnengine"
	"github.com/as2gw/gateway/internal/outbound"
	"github.com/as2gw/gateway/internal/profile"
	"github.com/as2gw/gateway/internal/store"
	"github.com/rs/zerolog"
)

// Coordinator owns the four periodic sweeps described in spec §4.8.
type Coordinator struct {
	store   *store.Store
	profile *profile.Store
	log     zerolog.Logger

	asyncMDNWait time.Duration
	maxRetries   int
	maxArchDays  int
	checkInterval time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// New builds a Coordinator. asyncMDNWait/maxRetries/maxArchDays mirror
// the ASYNCMDNWAIT/MAXRETRIES/MAXARCHDAYS configuration options.
func New(st *store.Store, prof *profile.Store, asyncMDNWait time.Duration, maxRetries, maxArchDays int) *Coordinator {
	return &Coordinator{
		store:         st,
		profile:       prof,
		log:           logging.WithComponent("coordinator"),
		asyncMDNWait:  asyncMDNWait,
		maxRetries:    maxRetries,
		maxArchDays:   maxArchDays,
		checkInterval: 1 * time.Minute,
	}
}

// Start launches the background sweep loop.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.running = true
	c.wg.Add(1)
	go c.run()
	c.log.Info().Msg("retry coordinator started")
}

// Stop halts the sweep loop and waits for the in-flight tick to finish.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.cancel()
	c.wg.Wait()
	c.running = false
	c.log.Info().Msg("retry coordinator stopped")
}

func (c *Coordinator) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.tick()
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Coordinator) tick() {
	c.sweepPendingAsyncMDNs()
	c.sweepAsyncTimeouts()
	c.sweepRetries()
	c.sweepArchive()
}

// sweepPendingAsyncMDNs delivers any MDN still queued for async send.
func (c *Coordinator) sweepPendingAsyncMDNs() {
	pending, err := c.store.ListPendingMDNs()
	if err != nil {
		c.log.Error().Err(err).Msg("failed to list pending mdns")
		return
	}
	for _, mdn := range pending {
		if mdn.Retries > c.maxRetries {
			mdn.Status = as2model.MDNStatusError
			if err := c.store.CreateMDN(mdn); err != nil {
				c.log.Error().Err(err).Str("messageID", mdn.MessageID).Msg("failed to mark mdn dead-lettered")
			}
			continue
		}

		body, err := c.store.Artifact.ReadFile(mdn.FilePath)
		if err != nil {
			c.log.Error().Err(err).Str("messageID", mdn.MessageID).Msg("failed to read stored mdn body")
			continue
		}

		headers := parseStoredHeaders(mdn.Headers)
		if err := mdnengine.Send(c.ctx, mdn.ReturnURL, headers, body, 30*time.Second); err != nil {
			mdn.Retries++
			c.log.Warn().Err(err).Str("messageID", mdn.MessageID).Int("retries", mdn.Retries).Msg("async mdn delivery failed, will retry")
			if uerr := c.store.CreateMDN(mdn); uerr != nil {
				c.log.Error().Err(uerr).Str("messageID", mdn.MessageID).Msg("failed to persist mdn retry count")
			}
			continue
		}

		mdn.Status = as2model.MDNStatusSent
		if err := c.store.CreateMDN(mdn); err != nil {
			c.log.Error().Err(err).Str("messageID", mdn.MessageID).Msg("failed to mark mdn sent")
		}
	}
}

// sweepAsyncTimeouts fails outbound messages that never received their
// async MDN within asyncMDNWait.
func (c *Coordinator) sweepAsyncTimeouts() {
	pending, err := c.store.ListPendingAsyncMDNs()
	if err != nil {
		c.log.Error().Err(err).Msg("failed to list pending async mdns")
		return
	}
	for _, msg := range pending {
		if time.Since(msg.Timestamp) < c.asyncMDNWait {
			continue
		}
		msg.Status = as2model.StatusError
		msg.AdvStatus = "async-mdn-timeout"
		msg.StatusMessage = "no asynchronous mdn received within the configured wait period"
		if err := c.store.UpdateMessage(msg); err != nil {
			c.log.Error().Err(err).Str("messageID", msg.MessageID).Msg("failed to mark message async-timed-out")
			continue
		}
		if err := c.store.AppendLog(msg.ID, as2model.LogError, "async mdn wait period elapsed"); err != nil {
			c.log.Error().Err(err).Str("messageID", msg.MessageID).Msg("failed to append timeout log")
		}
	}
}

// sweepRetries re-sends outbound messages left in status=R, bounded by
// maxRetries, looking up the partner's current profile by the AS2 name
// stored on the message.
func (c *Coordinator) sweepRetries() {
	retryable, err := c.store.ListRetryable()
	if err != nil {
		c.log.Error().Err(err).Msg("failed to list retryable messages")
		return
	}
	for _, msg := range retryable {
		if msg.Retries >= c.maxRetries {
			msg.Status = as2model.StatusError
			msg.AdvStatus = "retries-exhausted"
			if uerr := c.store.UpdateMessage(msg); uerr != nil {
				c.log.Error().Err(uerr).Str("messageID", msg.MessageID).Msg("failed to dead-letter message")
			}
			continue
		}

		partner, err := c.profile.FindPartner(msg.PartnerName)
		if err != nil || partner == nil {
			c.log.Error().Err(err).Str("partner", msg.PartnerName).Msg("retry: partner profile no longer resolvable")
			continue
		}

		headers := parseStoredHeaders(msg.Headers)

		var body []byte
		if msg.PayloadID != "" {
			payload, perr := c.store.GetPayload(msg.PayloadID)
			if perr != nil || payload == nil {
				c.log.Error().Err(perr).Str("messageID", msg.MessageID).Msg("failed to resolve stored outbound payload for retry")
				continue
			}
			body, err = c.store.Artifact.ReadFile(payload.FilePath)
			if err != nil {
				c.log.Error().Err(err).Str("messageID", msg.MessageID).Msg("failed to read stored outbound body for retry")
				continue
			}
		}

		result, err := outbound.Send(c.ctx, partner.TargetURL, headers, body,
			partner.HTTPAuthUser, partner.HTTPAuthPass, partner.HTTPSCACert, 60*time.Second)

		msg.Retries++
		if err != nil {
			c.log.Warn().Err(err).Str("messageID", msg.MessageID).Int("retries", msg.Retries).Msg("retry send failed")
			if uerr := c.store.UpdateMessage(msg); uerr != nil {
				c.log.Error().Err(uerr).Str("messageID", msg.MessageID).Msg("failed to persist retry count")
			}
			continue
		}

		if result != nil && len(result.Body) > 0 {
			parsed, parseErr := mdnengine.Parse(result.HeaderMap(), result.Body, partner.SignatureAlg != "", msg.MIC, msg.MICAlg)
			msg.Status, msg.AdvStatus = mdnengine.Reconcile(parsed, parseErr)
			if parseErr != nil {
				msg.StatusMessage = parseErr.Error()
			} else {
				msg.StatusMessage = "synchronous mdn received on retry"
			}
		} else {
			msg.Status = as2model.StatusSuccess
			msg.AdvStatus = "processed"
		}
		if uerr := c.store.UpdateMessage(msg); uerr != nil {
			c.log.Error().Err(uerr).Str("messageID", msg.MessageID).Msg("failed to mark retried message delivered")
		}
	}
}

// sweepArchive prunes payload and mdn artifacts older than maxArchDays,
// mirroring MAXARCHDAYS of the reference implementation.
func (c *Coordinator) sweepArchive() {
	if c.maxArchDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -c.maxArchDays)
	if err := c.store.Artifact.PruneOlderThan(cutoff); err != nil {
		c.log.Error().Err(err).Msg("failed to prune archived artifacts")
	}
}

// parseStoredHeaders parses the "Key: Value\n"-per-line storage form
// written by outbound.JoinHeaders back into a header map.
func parseStoredHeaders(stored string) map[string]string {
	headers := make(map[string]string)
	for _, line := range strings.Split(stored, "\n") {
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(val)
	}
	return headers
}
