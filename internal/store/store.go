// Package store persists Messages, MDNs, Payloads and the Log stream
// (spec §4.4), plus the on-disk artifact sinks that back them.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/as2gw/gateway/internal/as2model"
	"github.com/as2gw/gateway/internal/logging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store persists the message, MDN, payload and log tables.
type Store struct {
	db       *sql.DB
	log      zerolog.Logger
	Artifact *ArtifactStore
}

func NewStore(db *sql.DB, rootDir string) *Store {
	return &Store{
		db:       db,
		log:      logging.WithComponent("store"),
		Artifact: NewArtifactStore(rootDir),
	}
}

// CreateMessage inserts a new Message record. Idempotent in the sense
// that callers always supply a freshly-generated ID; duplicate IDs are a
// programming error, not a retry path (retries call UpdateMessage).
func (s *Store) CreateMessage(m *as2model.Message) error {
	_, err := s.db.Exec(`
		INSERT INTO messages (id, message_id, direction, status, adv_status, status_message, timestamp,
			headers, org_name, partner_name, payload_id, compressed, encrypted, signed, mic, mic_alg, mdn_mode, retries)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.MessageID, string(m.Direction), string(m.Status), m.AdvStatus, m.StatusMessage, m.Timestamp,
		m.Headers, m.OrgName, m.PartnerName, m.PayloadID, m.Compressed, m.Encrypted, m.Signed, m.MIC, m.MICAlg,
		string(m.MDNMode), m.Retries,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// UpdateMessage writes back the mutable fields of a Message (status
// transitions, retries, MIC).
func (s *Store) UpdateMessage(m *as2model.Message) error {
	_, err := s.db.Exec(`
		UPDATE messages SET status = ?, adv_status = ?, status_message = ?, mic = ?, mic_alg = ?, retries = ?
		WHERE id = ?`,
		string(m.Status), m.AdvStatus, m.StatusMessage, m.MIC, m.MICAlg, m.Retries, m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	return nil
}

// GetMessage retrieves a Message by its primary id.
func (s *Store) GetMessage(id string) (*as2model.Message, error) {
	return s.scanMessage(s.db.QueryRow(`
		SELECT id, message_id, direction, status, adv_status, status_message, timestamp,
			headers, org_name, partner_name, payload_id, compressed, encrypted, signed, mic, mic_alg, mdn_mode, retries
		FROM messages WHERE id = ?`, id))
}

// FindByMessageID locates an outbound Message by its raw Message-ID, used
// when reconciling an incoming async MDN against the original send.
func (s *Store) FindByMessageID(messageID string, direction as2model.Direction) (*as2model.Message, error) {
	return s.scanMessage(s.db.QueryRow(`
		SELECT id, message_id, direction, status, adv_status, status_message, timestamp,
			headers, org_name, partner_name, payload_id, compressed, encrypted, signed, mic, mic_alg, mdn_mode, retries
		FROM messages WHERE message_id = ? AND direction = ?
		ORDER BY timestamp DESC LIMIT 1`, messageID, string(direction)))
}

// ExistsDuplicate reports whether a prior Message exists for the same
// org/partner/message-id-prefix triple (spec §4.6 step 2).
func (s *Store) ExistsDuplicate(org, partner, messageIDPrefix string) (bool, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM messages
		WHERE org_name = ? AND partner_name = ? AND message_id LIKE ? || '%'`,
		org, partner, messageIDPrefix,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return count > 0, nil
}

// ListPendingAsyncMDNs returns outbound Messages with status=P waiting on
// an async MDN, used by the retry/async coordinator.
func (s *Store) ListPendingAsyncMDNs() ([]*as2model.Message, error) {
	rows, err := s.db.Query(`
		SELECT id, message_id, direction, status, adv_status, status_message, timestamp,
			headers, org_name, partner_name, payload_id, compressed, encrypted, signed, mic, mic_alg, mdn_mode, retries
		FROM messages WHERE direction = 'OUT' AND status = 'P'`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending messages: %w", err)
	}
	defer rows.Close()
	return s.scanMessages(rows)
}

// ListRetryable returns Messages with status=R for the general send
// retry sweep.
func (s *Store) ListRetryable() ([]*as2model.Message, error) {
	rows, err := s.db.Query(`
		SELECT id, message_id, direction, status, adv_status, status_message, timestamp,
			headers, org_name, partner_name, payload_id, compressed, encrypted, signed, mic, mic_alg, mdn_mode, retries
		FROM messages WHERE direction = 'OUT' AND status = 'R'`)
	if err != nil {
		return nil, fmt.Errorf("failed to list retryable messages: %w", err)
	}
	defer rows.Close()
	return s.scanMessages(rows)
}

// ListRecent returns the most recently timestamped Messages, newest
// first, optionally filtered by direction. Used by the admin CLI/API,
// not by any processing sweep.
func (s *Store) ListRecent(direction as2model.Direction, limit int) ([]*as2model.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, message_id, direction, status, adv_status, status_message, timestamp,
			headers, org_name, partner_name, payload_id, compressed, encrypted, signed, mic, mic_alg, mdn_mode, retries
		FROM messages`
	args := []interface{}{}
	if direction != "" {
		query += ` WHERE direction = ?`
		args = append(args, string(direction))
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}
	defer rows.Close()
	return s.scanMessages(rows)
}

func (s *Store) scanMessage(row *sql.Row) (*as2model.Message, error) {
	m := &as2model.Message{}
	var direction, status, mdnMode string
	err := row.Scan(
		&m.ID, &m.MessageID, &direction, &status, &m.AdvStatus, &m.StatusMessage, &m.Timestamp,
		&m.Headers, &m.OrgName, &m.PartnerName, &m.PayloadID, &m.Compressed, &m.Encrypted, &m.Signed,
		&m.MIC, &m.MICAlg, &mdnMode, &m.Retries,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}
	m.Direction = as2model.Direction(direction)
	m.Status = as2model.Status(status)
	m.MDNMode = as2model.MDNMode(mdnMode)
	return m, nil
}

func (s *Store) scanMessages(rows *sql.Rows) ([]*as2model.Message, error) {
	var out []*as2model.Message
	for rows.Next() {
		m := &as2model.Message{}
		var direction, status, mdnMode string
		if err := rows.Scan(
			&m.ID, &m.MessageID, &direction, &status, &m.AdvStatus, &m.StatusMessage, &m.Timestamp,
			&m.Headers, &m.OrgName, &m.PartnerName, &m.PayloadID, &m.Compressed, &m.Encrypted, &m.Signed,
			&m.MIC, &m.MICAlg, &mdnMode, &m.Retries,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		m.Direction = as2model.Direction(direction)
		m.Status = as2model.Status(status)
		m.MDNMode = as2model.MDNMode(mdnMode)
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreatePayload inserts a Payload linked to a Message.
func (s *Store) CreatePayload(p *as2model.Payload) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := s.db.Exec(`
		INSERT INTO payloads (id, message_id, name, content_type, file_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.MessageID, p.Name, p.ContentType, p.FilePath, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to create payload: %w", err)
	}
	return nil
}

// GetPayload retrieves a Payload by ID.
func (s *Store) GetPayload(id string) (*as2model.Payload, error) {
	p := &as2model.Payload{}
	err := s.db.QueryRow(`
		SELECT id, message_id, name, content_type, file_path, created_at FROM payloads WHERE id = ?`, id,
	).Scan(&p.ID, &p.MessageID, &p.Name, &p.ContentType, &p.FilePath, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query payload: %w", err)
	}
	return p, nil
}

// CreateMDN inserts or replaces the MDN record for a Message.
func (s *Store) CreateMDN(mdn *as2model.MDN) error {
	_, err := s.db.Exec(`
		INSERT INTO mdns (message_id, timestamp, status, file_path, headers, return_url, signed, retries)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(message_id) DO UPDATE SET
			status = excluded.status, file_path = excluded.file_path, headers = excluded.headers,
			return_url = excluded.return_url, signed = excluded.signed, retries = excluded.retries`,
		mdn.MessageID, mdn.Timestamp, string(mdn.Status), mdn.FilePath, mdn.Headers, mdn.ReturnURL, mdn.Signed, mdn.Retries,
	)
	if err != nil {
		return fmt.Errorf("failed to create mdn: %w", err)
	}
	return nil
}

// GetMDN retrieves the MDN record for a Message.
func (s *Store) GetMDN(messageID string) (*as2model.MDN, error) {
	mdn := &as2model.MDN{}
	var status string
	err := s.db.QueryRow(`
		SELECT message_id, timestamp, status, file_path, headers, return_url, signed, retries
		FROM mdns WHERE message_id = ?`, messageID,
	).Scan(&mdn.MessageID, &mdn.Timestamp, &status, &mdn.FilePath, &mdn.Headers, &mdn.ReturnURL, &mdn.Signed, &mdn.Retries)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query mdn: %w", err)
	}
	mdn.Status = as2model.MDNStatus(status)
	return mdn, nil
}

// ListPendingMDNs returns MDNs awaiting async delivery.
func (s *Store) ListPendingMDNs() ([]*as2model.MDN, error) {
	rows, err := s.db.Query(`
		SELECT message_id, timestamp, status, file_path, headers, return_url, signed, retries
		FROM mdns WHERE status = 'P'`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending mdns: %w", err)
	}
	defer rows.Close()

	var out []*as2model.MDN
	for rows.Next() {
		mdn := &as2model.MDN{}
		var status string
		if err := rows.Scan(&mdn.MessageID, &mdn.Timestamp, &status, &mdn.FilePath, &mdn.Headers, &mdn.ReturnURL, &mdn.Signed, &mdn.Retries); err != nil {
			return nil, fmt.Errorf("failed to scan mdn row: %w", err)
		}
		mdn.Status = as2model.MDNStatus(status)
		out = append(out, mdn)
	}
	return out, rows.Err()
}

// AppendLog records a single append-only log entry against a Message.
func (s *Store) AppendLog(messageID string, status as2model.LogStatus, text string) error {
	_, err := s.db.Exec(`
		INSERT INTO logs (message_id, timestamp, status, text) VALUES (?, ?, ?, ?)`,
		messageID, time.Now(), string(status), text,
	)
	if err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}
	return nil
}

// ListLogs returns the log stream for a Message, oldest first.
func (s *Store) ListLogs(messageID string) ([]*as2model.LogEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, message_id, timestamp, status, text FROM logs WHERE message_id = ? ORDER BY id ASC`, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	var out []*as2model.LogEntry
	for rows.Next() {
		e := &as2model.LogEntry{}
		var status string
		if err := rows.Scan(&e.ID, &e.MessageID, &e.Timestamp, &status, &e.Text); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		e.Status = as2model.LogStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}
