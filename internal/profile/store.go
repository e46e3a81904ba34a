// Package profile manages AS2 Organizations, Partners and Certificates:
// identity resolution from AS2-From/AS2-To and the negotiated security
// contract of each trading relationship (spec §4.3).
package profile

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/as2gw/gateway/internal/as2model"
	"github.com/as2gw/gateway/internal/logging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store persists Organizations, Partners and Certificates.
type Store struct {
	db      *sql.DB
	log     zerolog.Logger
	rootDir string
}

// NewStore creates a profile store rooted at rootDir, under which the
// per-partner inbox/outbox directory tree is bootstrapped (spec SUPPLEMENTED
// FEATURES: directory bootstrapping).
func NewStore(db *sql.DB, rootDir string) *Store {
	return &Store{
		db:      db,
		log:     logging.WithComponent("profile"),
		rootDir: rootDir,
	}
}

// CreateOrganization inserts a new Organization. It creates no
// directories; EnsureDirsFor does that for an org/partner pair.
func (s *Store) CreateOrganization(org *as2model.Organization) error {
	if org.ConfirmationMessage == "" {
		org.ConfirmationMessage = "The AS2 message has been received."
	}
	_, err := s.db.Exec(`
		INSERT INTO organizations (as2_name, name, email_address, encryption_cert_id, signature_cert_id, confirmation_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		org.AS2Name, org.Name, org.EmailAddress, org.EncryptionCertID, org.SignatureCertID, org.ConfirmationMessage, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// FindOrganization resolves an AS2-To header value to an Organization.
// Returns (nil, nil) if not found; callers classify absence to
// as2err.PartnerNotFound.
func (s *Store) FindOrganization(as2Name string) (*as2model.Organization, error) {
	org := &as2model.Organization{}
	err := s.db.QueryRow(`
		SELECT as2_name, name, email_address, encryption_cert_id, signature_cert_id, confirmation_message, created_at
		FROM organizations WHERE as2_name = ?`, as2Name,
	).Scan(&org.AS2Name, &org.Name, &org.EmailAddress, &org.EncryptionCertID, &org.SignatureCertID, &org.ConfirmationMessage, &org.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query organization: %w", err)
	}
	return org, nil
}

// CreatePartner inserts a new Partner. It creates no directories;
// EnsureDirsFor does that for an org/partner pair.
func (s *Store) CreatePartner(p *as2model.Partner) error {
	if p.ContentType == "" {
		p.ContentType = "application/edi-consent"
	}
	if p.Subject == "" {
		p.Subject = "EDI Message sent using AS2Gw"
	}
	if p.MDNMode == "" {
		p.MDNMode = as2model.MDNModeSync
	}
	_, err := s.db.Exec(`
		INSERT INTO partners (as2_name, name, target_url, http_auth_user, http_auth_pass, https_ca_cert,
			subject, content_type, compress, encryption_alg, encryption_cert_id, signature_alg, signature_cert_id,
			mdn_requested, mdn_mode, mdn_sign_alg, keep_filename, cmd_send, cmd_receive, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.AS2Name, p.Name, p.TargetURL, p.HTTPAuthUser, p.HTTPAuthPass, p.HTTPSCACert,
		p.Subject, p.ContentType, p.Compress, p.EncryptionAlg, p.EncryptionCertID, p.SignatureAlg, p.SignatureCertID,
		p.MDNRequested, string(p.MDNMode), p.MDNSignAlg, p.KeepFilename, p.CmdSend, p.CmdReceive, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to create partner: %w", err)
	}
	return nil
}

// FindPartner resolves an AS2-From header value to a Partner.
func (s *Store) FindPartner(as2Name string) (*as2model.Partner, error) {
	p := &as2model.Partner{}
	var mdnMode string
	err := s.db.QueryRow(`
		SELECT as2_name, name, target_url, http_auth_user, http_auth_pass, https_ca_cert,
			subject, content_type, compress, encryption_alg, encryption_cert_id, signature_alg, signature_cert_id,
			mdn_requested, mdn_mode, mdn_sign_alg, keep_filename, cmd_send, cmd_receive, created_at
		FROM partners WHERE as2_name = ?`, as2Name,
	).Scan(
		&p.AS2Name, &p.Name, &p.TargetURL, &p.HTTPAuthUser, &p.HTTPAuthPass, &p.HTTPSCACert,
		&p.Subject, &p.ContentType, &p.Compress, &p.EncryptionAlg, &p.EncryptionCertID, &p.SignatureAlg, &p.SignatureCertID,
		&p.MDNRequested, &mdnMode, &p.MDNSignAlg, &p.KeepFilename, &p.CmdSend, &p.CmdReceive, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query partner: %w", err)
	}
	p.MDNMode = as2model.MDNMode(mdnMode)
	return p, nil
}

// SaveCertificate inserts or replaces a certificate by fingerprint.
func (s *Store) SaveCertificate(cert *as2model.Certificate) error {
	if cert.ID == "" {
		cert.ID = uuid.New().String()
	}
	_, err := s.db.Exec(`
		INSERT INTO certificates (id, kind, cert_pem, ca_pem, private_key_pem, passphrase_ref, verify_cert,
			subject, issuer, serial_number, fingerprint, not_before, not_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			cert_pem = excluded.cert_pem,
			ca_pem = excluded.ca_pem,
			private_key_pem = excluded.private_key_pem,
			passphrase_ref = excluded.passphrase_ref`,
		cert.ID, string(cert.Kind), cert.CertPEM, cert.CAPEM, cert.PrivateKeyPEM, cert.PassphraseRef, cert.VerifyCert,
		cert.Subject, cert.Issuer, cert.SerialNumber, cert.Fingerprint, cert.NotBefore, cert.NotAfter, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save certificate: %w", err)
	}
	return nil
}

// GetCertificate retrieves a certificate by ID.
func (s *Store) GetCertificate(id string) (*as2model.Certificate, error) {
	cert := &as2model.Certificate{}
	var kind string
	err := s.db.QueryRow(`
		SELECT id, kind, cert_pem, ca_pem, private_key_pem, passphrase_ref, verify_cert,
			subject, issuer, serial_number, fingerprint, not_before, not_after, created_at
		FROM certificates WHERE id = ?`, id,
	).Scan(
		&cert.ID, &kind, &cert.CertPEM, &cert.CAPEM, &cert.PrivateKeyPEM, &cert.PassphraseRef, &cert.VerifyCert,
		&cert.Subject, &cert.Issuer, &cert.SerialNumber, &cert.Fingerprint, &cert.NotBefore, &cert.NotAfter, &cert.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query certificate: %w", err)
	}
	cert.Kind = as2model.CertificateKind(kind)
	return cert, nil
}

// DeleteCertificate removes a certificate by ID.
func (s *Store) DeleteCertificate(id string) error {
	_, err := s.db.Exec("DELETE FROM certificates WHERE id = ?", id)
	return err
}

// ensureDirs creates the inbox/outbox tree for a trading relationship,
// mirroring pyas2's check_odirs/check_pdirs signal handlers.
func (s *Store) ensureDirs(orgName, partnerName string) error {
	dirs := []string{
		filepath.Join(s.rootDir, "messages", orgName, "inbox", partnerName),
		filepath.Join(s.rootDir, "messages", partnerName, "outbox", orgName),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}
	return nil
}

// EnsureDirsFor is the public entry point used once both the org and
// partner side of a relationship are known (e.g. on first message).
func (s *Store) EnsureDirsFor(orgName, partnerName string) error {
	return s.ensureDirs(orgName, partnerName)
}
