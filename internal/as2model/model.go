// Package as2model defines the shared data types of the AS2 engine:
// organizations, partners, certificates, payloads, messages, MDNs, and the
// append-only log stream (spec §3).
package as2model

import "time"

// Direction is the direction of a Message.
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// Status is a Message's lifecycle state.
type Status string

const (
	StatusSuccess    Status = "S"
	StatusError      Status = "E"
	StatusWarning    Status = "W"
	StatusPending    Status = "P"
	StatusRetry      Status = "R"
	StatusInProcess  Status = "IP"
)

// MDNStatus is an MDN's delivery state.
type MDNStatus string

const (
	MDNStatusSent     MDNStatus = "S"
	MDNStatusReceived MDNStatus = "R"
	MDNStatusPending  MDNStatus = "P"
	MDNStatusError    MDNStatus = "E"
)

// LogStatus is the severity of a Log entry.
type LogStatus string

const (
	LogSuccess LogStatus = "S"
	LogWarning LogStatus = "W"
	LogError   LogStatus = "E"
)

// MDNMode selects synchronous or asynchronous MDN delivery.
type MDNMode string

const (
	MDNModeSync  MDNMode = "SYNC"
	MDNModeAsync MDNMode = "ASYNC"
)

// CertificateKind distinguishes private (sign/decrypt) from public
// (verify/encrypt) certificates.
type CertificateKind string

const (
	CertKindPrivate CertificateKind = "private"
	CertKindPublic  CertificateKind = "public"
)

// Organization is a locally-owned AS2 identity.
type Organization struct {
	AS2Name             string
	Name                string
	EmailAddress        string
	EncryptionCertID    string
	SignatureCertID     string
	ConfirmationMessage string
	CreatedAt           time.Time
}

// Partner is a remote AS2 identity and its negotiated security contract.
type Partner struct {
	AS2Name          string
	Name             string
	TargetURL        string
	HTTPAuthUser     string
	HTTPAuthPass     string
	HTTPSCACert      string
	Subject          string
	ContentType      string
	Compress         bool
	EncryptionAlg    string
	EncryptionCertID string
	SignatureAlg     string
	SignatureCertID  string
	MDNRequested     bool
	MDNMode          MDNMode
	MDNSignAlg       string
	KeepFilename     bool
	CmdSend          string
	CmdReceive       string
	CreatedAt        time.Time
}

// Certificate is either a private bundle (signing/decryption key) or a
// public certificate (verification/encryption). Immutable once created.
type Certificate struct {
	ID            string
	Kind          CertificateKind
	CertPEM       string
	CAPEM         string
	PrivateKeyPEM string
	PassphraseRef string
	VerifyCert    bool
	Subject       string
	Issuer        string
	SerialNumber  string
	Fingerprint   string
	NotBefore     time.Time
	NotAfter      time.Time
	CreatedAt     time.Time
}

// Payload is the opaque business document carried by a Message.
type Payload struct {
	ID          string
	MessageID   string
	Name        string
	ContentType string
	FilePath    string
	CreatedAt   time.Time
}

// Message is the primary AS2 transaction record (spec §3).
type Message struct {
	ID            string // composite key for inbound: messageID#as2To#as2From
	MessageID     string // raw RFC-5322 Message-ID, angle brackets stripped
	Direction     Direction
	Status        Status
	AdvStatus     string
	StatusMessage string
	Timestamp     time.Time
	Headers       string
	OrgName       string
	PartnerName   string
	PayloadID     string
	Compressed    bool
	Encrypted     bool
	Signed        bool
	MIC           string
	MICAlg        string
	MDNMode       MDNMode
	Retries       int
}

// MDN is one-to-one with a Message, referenced weakly by Message-ID.
type MDN struct {
	MessageID string
	Timestamp time.Time
	Status    MDNStatus
	FilePath  string
	Headers   string
	ReturnURL string
	Signed    bool
	Retries   int
}

// LogEntry is an append-only activity record attached to a Message.
type LogEntry struct {
	ID        int64
	MessageID string
	Timestamp time.Time
	Status    LogStatus
	Text      string
}
