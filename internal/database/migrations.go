package database

// Migration represents a database migration.
type Migration struct {
	Version int
	SQL     string
}

// migrations is the list of all database migrations.
var migrations = []Migration{
	{
		Version: 1,
		SQL: `
			-- Organizations: local AS2 identities.
			CREATE TABLE organizations (
				as2_name TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				email_address TEXT,
				encryption_cert_id TEXT,
				signature_cert_id TEXT,
				confirmation_message TEXT NOT NULL DEFAULT 'The AS2 message has been received.',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);

			-- Partners: remote AS2 identities and their negotiated security contract.
			CREATE TABLE partners (
				as2_name TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				target_url TEXT NOT NULL,
				http_auth_user TEXT,
				http_auth_pass TEXT,
				https_ca_cert TEXT,
				subject TEXT NOT NULL DEFAULT 'EDI Message sent using AS2Gw',
				content_type TEXT NOT NULL DEFAULT 'application/edi-consent',
				compress INTEGER NOT NULL DEFAULT 0,
				encryption_alg TEXT,
				encryption_cert_id TEXT,
				signature_alg TEXT,
				signature_cert_id TEXT,
				mdn_requested INTEGER NOT NULL DEFAULT 0,
				mdn_mode TEXT NOT NULL DEFAULT 'SYNC',
				mdn_sign_alg TEXT,
				keep_filename INTEGER NOT NULL DEFAULT 0,
				cmd_send TEXT,
				cmd_receive TEXT,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);

			-- Certificates: private (bundle + passphrase) or public (cert + CA).
			CREATE TABLE certificates (
				id TEXT PRIMARY KEY,
				kind TEXT NOT NULL CHECK (kind IN ('private', 'public')),
				cert_pem TEXT NOT NULL,
				ca_pem TEXT,
				private_key_pem TEXT,
				passphrase_ref TEXT,
				verify_cert INTEGER NOT NULL DEFAULT 1,
				subject TEXT,
				issuer TEXT,
				serial_number TEXT,
				fingerprint TEXT UNIQUE,
				not_before DATETIME,
				not_after DATETIME,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);

			-- Payloads: opaque business documents, content-addressed on disk.
			CREATE TABLE payloads (
				id TEXT PRIMARY KEY,
				message_id TEXT NOT NULL,
				name TEXT NOT NULL,
				content_type TEXT NOT NULL,
				file_path TEXT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);

			-- Messages: primary AS2 transaction record.
			CREATE TABLE messages (
				id TEXT PRIMARY KEY,
				message_id TEXT NOT NULL,
				direction TEXT NOT NULL CHECK (direction IN ('IN', 'OUT')),
				status TEXT NOT NULL,
				adv_status TEXT,
				status_message TEXT,
				timestamp DATETIME NOT NULL,
				headers TEXT NOT NULL DEFAULT '',
				org_name TEXT NOT NULL,
				partner_name TEXT NOT NULL,
				payload_id TEXT,
				compressed INTEGER NOT NULL DEFAULT 0,
				encrypted INTEGER NOT NULL DEFAULT 0,
				signed INTEGER NOT NULL DEFAULT 0,
				mic TEXT,
				mic_alg TEXT,
				mdn_mode TEXT,
				retries INTEGER NOT NULL DEFAULT 0
			);

			CREATE INDEX idx_messages_lookup ON messages (org_name, partner_name, message_id);
			CREATE INDEX idx_messages_status ON messages (direction, status);

			-- MDNs: one-to-one with a Message, mutual reference by message-id only.
			CREATE TABLE mdns (
				message_id TEXT PRIMARY KEY,
				timestamp DATETIME NOT NULL,
				status TEXT NOT NULL,
				file_path TEXT,
				headers TEXT NOT NULL DEFAULT '',
				return_url TEXT,
				signed INTEGER NOT NULL DEFAULT 0,
				retries INTEGER NOT NULL DEFAULT 0
			);

			-- Logs: append-only activity trail per message.
			CREATE TABLE logs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				message_id TEXT NOT NULL,
				timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				status TEXT NOT NULL,
				text TEXT NOT NULL
			);

			CREATE INDEX idx_logs_message ON logs (message_id);

			-- Secrets: encrypted-database fallback for certificate passphrases
			-- when the OS keyring is unavailable.
			CREATE TABLE secrets (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);
		`,
	},
}
