package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/as2gw/gateway/internal/as2model"
	"github.com/as2gw/gateway/internal/database"
	"github.com/as2gw/gateway/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return store.NewStore(db.DB, t.TempDir())
}

func sampleMessage(id, messageID string) *as2model.Message {
	return &as2model.Message{
		ID: id, MessageID: messageID, Direction: as2model.DirectionOut, Status: as2model.StatusPending,
		Timestamp: time.Now(), OrgName: "ORG", PartnerName: "PARTNER",
	}
}

func TestCreateGetMessage_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	msg := sampleMessage("m1", "abc123")
	require.NoError(t, s.CreateMessage(msg))

	got, err := s.GetMessage("m1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "abc123", got.MessageID)
	assert.Equal(t, as2model.StatusPending, got.Status)
}

func TestGetMessage_NotFoundReturnsNil(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetMessage("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindByMessageID(t *testing.T) {
	s := newTestStore(t)
	msg := sampleMessage("m2", "find-me")
	msg.Direction = as2model.DirectionIn
	require.NoError(t, s.CreateMessage(msg))

	got, err := s.FindByMessageID("find-me", as2model.DirectionIn)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "m2", got.ID)

	none, err := s.FindByMessageID("find-me", as2model.DirectionOut)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestUpdateMessage(t *testing.T) {
	s := newTestStore(t)
	msg := sampleMessage("m3", "update-me")
	require.NoError(t, s.CreateMessage(msg))

	msg.Status = as2model.StatusSuccess
	msg.Retries = 3
	require.NoError(t, s.UpdateMessage(msg))

	got, err := s.GetMessage("m3")
	require.NoError(t, err)
	assert.Equal(t, as2model.StatusSuccess, got.Status)
	assert.Equal(t, 3, got.Retries)
}

func TestExistsDuplicate(t *testing.T) {
	s := newTestStore(t)
	msg := sampleMessage("m4", "dup-prefix")
	msg.Direction = as2model.DirectionIn
	require.NoError(t, s.CreateMessage(msg))

	dup, err := s.ExistsDuplicate("ORG", "PARTNER", "dup-prefix")
	require.NoError(t, err)
	assert.True(t, dup)

	none, err := s.ExistsDuplicate("ORG", "PARTNER", "no-such-prefix")
	require.NoError(t, err)
	assert.False(t, none)
}

func TestListPendingAsyncMDNs(t *testing.T) {
	s := newTestStore(t)
	pending := sampleMessage("m5", "pending-async")
	pending.Status = as2model.StatusPending
	require.NoError(t, s.CreateMessage(pending))

	notPending := sampleMessage("m6", "not-pending")
	notPending.Status = as2model.StatusSuccess
	require.NoError(t, s.CreateMessage(notPending))

	results, err := s.ListPendingAsyncMDNs()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "m5", results[0].ID)
}

func TestListRetryable(t *testing.T) {
	s := newTestStore(t)
	retryable := sampleMessage("m7", "retry-me")
	retryable.Status = as2model.StatusRetry
	require.NoError(t, s.CreateMessage(retryable))

	inbound := sampleMessage("m8", "not-retryable")
	inbound.Direction = as2model.DirectionIn
	inbound.Status = as2model.StatusRetry
	require.NoError(t, s.CreateMessage(inbound))

	results, err := s.ListRetryable()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "m7", results[0].ID)
}

func TestListRecent_FiltersByDirectionAndOrdersNewestFirst(t *testing.T) {
	s := newTestStore(t)
	older := sampleMessage("m9", "older")
	older.Timestamp = time.Now().Add(-time.Hour)
	require.NoError(t, s.CreateMessage(older))

	newer := sampleMessage("m10", "newer")
	newer.Timestamp = time.Now()
	require.NoError(t, s.CreateMessage(newer))

	results, err := s.ListRecent(as2model.DirectionOut, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "m10", results[0].ID)
	assert.Equal(t, "m9", results[1].ID)
}

func TestListRecent_DefaultsLimitWhenNonPositive(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateMessage(sampleMessage("m11", "whatever")))

	results, err := s.ListRecent("", 0)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestPayloadCreateGet(t *testing.T) {
	s := newTestStore(t)
	p := &as2model.Payload{MessageID: "m1", Name: "doc.edi", ContentType: "application/edi-x12", FilePath: "/tmp/doc.edi"}
	require.NoError(t, s.CreatePayload(p))
	assert.NotEmpty(t, p.ID)

	got, err := s.GetPayload(p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "doc.edi", got.Name)
}

func TestMDNCreateGetListPending(t *testing.T) {
	s := newTestStore(t)
	mdn := &as2model.MDN{MessageID: "msg-1", Timestamp: time.Now(), Status: as2model.MDNStatusPending, ReturnURL: "https://partner.example.com/mdn"}
	require.NoError(t, s.CreateMDN(mdn))

	got, err := s.GetMDN("msg-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, as2model.MDNStatusPending, got.Status)

	pending, err := s.ListPendingMDNs()
	require.NoError(t, err)
	require.Len(t, pending, 1)

	mdn.Status = as2model.MDNStatusSent
	require.NoError(t, s.CreateMDN(mdn))
	pending, err = s.ListPendingMDNs()
	require.NoError(t, err)
	assert.Len(t, pending, 0)
}

func TestAppendAndListLogs(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.AppendLog("m1", as2model.LogSuccess, "first"))
	require.NoError(t, s.AppendLog("m1", as2model.LogError, "second"))

	logs, err := s.ListLogs("m1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "first", logs[0].Text)
	assert.Equal(t, "second", logs[1].Text)
}
