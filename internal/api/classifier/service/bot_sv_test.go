package classifierService

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"LedgerBot/internal/entity"
)

func inbound(id, text string) entity.InboundMessage {
	return entity.InboundMessage{
		MessageID: id,
		Text:      text,
		UserID:    "628111@s.whatsapp.net",
		ChatID:    "628111@s.whatsapp.net",
		Timestamp: time.Now(),
	}
}

func TestHandleInboundStrongSignalAutoCommits(t *testing.T) {
	fx := &testFixture{}
	svc := newTestService(fx)
	ctx := context.Background()

	reply, err := svc.HandleInbound(ctx, inbound("m1", "Bayar listrik PLN 500rb"))

	require.NoError(t, err)
	assert.Contains(t, reply, "Tercatat")
	assert.Contains(t, reply, "Operational Kantor")

	require.Len(t, fx.ledger.commits, 1)
	assert.Equal(t, "OPERATIONAL", fx.ledger.commits[0].Scope)
	assert.Equal(t, int64(500000), fx.ledger.commits[0].Amount)

	// Auto commits still feed the learner.
	count, _ := fx.patterns.CountPatterns(ctx)
	assert.Equal(t, int64(1), count)

	// And leave no dialog behind.
	sessions, _ := fx.sessions.CountSessions(ctx)
	assert.Equal(t, int64(0), sessions)
}

func TestHandleInboundMediumSignalConfirmsThenCommits(t *testing.T) {
	fx := &testFixture{}
	svc := newTestService(fx)
	ctx := context.Background()

	prompt, err := svc.HandleInbound(ctx, inbound("m1", "Gajian tukang Wooftopia 2jt"))
	require.NoError(t, err)
	assert.Contains(t, prompt, "Project")
	assert.Contains(t, prompt, "1.")
	assert.Empty(t, fx.ledger.commits)

	sessions, _ := fx.sessions.CountSessions(ctx)
	require.Equal(t, int64(1), sessions)

	reply, err := svc.HandleInbound(ctx, inbound("m2", "1"))
	require.NoError(t, err)
	assert.Contains(t, reply, "Tercatat")

	require.Len(t, fx.ledger.commits, 1)
	assert.Equal(t, "PROJECT", fx.ledger.commits[0].Scope)
	assert.Equal(t, "Wooftopia", fx.ledger.commits[0].ProjectName)
	assert.Equal(t, int64(2000000), fx.ledger.commits[0].Amount)

	sessions, _ = fx.sessions.CountSessions(ctx)
	assert.Equal(t, int64(0), sessions)

	// The confirmed phrasing is now a learned pattern.
	pattern, err := fx.patterns.GetPattern(ctx, normalizeTemplate("Gajian tukang Wooftopia 2jt"))
	require.NoError(t, err)
	assert.Equal(t, entity.ScopeProject, pattern.Scope)
	assert.Equal(t, 1, pattern.ConfirmationCount)
}

func TestHandleInboundConfirmRejectionFlipsScope(t *testing.T) {
	fx := &testFixture{}
	svc := newTestService(fx)
	ctx := context.Background()

	_, err := svc.HandleInbound(ctx, inbound("m1", "Gajian tukang Wooftopia 2jt"))
	require.NoError(t, err)

	reply, err := svc.HandleInbound(ctx, inbound("m2", "2"))
	require.NoError(t, err)
	assert.Contains(t, reply, "Operational Kantor")

	require.Len(t, fx.ledger.commits, 1)
	assert.Equal(t, "OPERATIONAL", fx.ledger.commits[0].Scope)
}

func TestHandleInboundAmbiguousAsksThenResolves(t *testing.T) {
	fx := &testFixture{}
	svc := newTestService(fx)
	ctx := context.Background()

	prompt, err := svc.HandleInbound(ctx, inbound("m1", "Bon 500rb"))
	require.NoError(t, err)
	assert.Contains(t, prompt, "Bon untuk apa")

	reply, err := svc.HandleInbound(ctx, inbound("m2", "2"))
	require.NoError(t, err)
	assert.Contains(t, reply, "Tercatat")

	require.Len(t, fx.ledger.commits, 1)
	assert.Equal(t, "PROJECT", fx.ledger.commits[0].Scope)
	assert.Equal(t, "Umum", fx.ledger.commits[0].ProjectName)
}

func TestHandleInboundAffirmationResolvesSuggestion(t *testing.T) {
	fx := &testFixture{}
	svc := newTestService(fx)
	ctx := context.Background()

	_, err := svc.HandleInbound(ctx, inbound("m1", "Gajian tukang Wooftopia 2jt"))
	require.NoError(t, err)

	reply, err := svc.HandleInbound(ctx, inbound("m2", "ya"))
	require.NoError(t, err)
	assert.Contains(t, reply, "Tercatat")

	require.Len(t, fx.ledger.commits, 1)
	assert.Equal(t, "PROJECT", fx.ledger.commits[0].Scope)
}

func TestHandleInboundFreeTextReplyReclassifies(t *testing.T) {
	fx := &testFixture{}
	svc := newTestService(fx)
	ctx := context.Background()

	_, err := svc.HandleInbound(ctx, inbound("m1", "Gajian tukang Wooftopia 2jt"))
	require.NoError(t, err)

	// Not a selection: the stale question is dropped and the new text runs
	// through the pipeline on its own.
	reply, err := svc.HandleInbound(ctx, inbound("m2", "Bayar listrik PLN 500rb"))
	require.NoError(t, err)
	assert.Contains(t, reply, "Tercatat")

	require.Len(t, fx.ledger.commits, 1)
	assert.Equal(t, "OPERATIONAL", fx.ledger.commits[0].Scope)

	sessions, _ := fx.sessions.CountSessions(ctx)
	assert.Equal(t, int64(0), sessions)
}

func TestHandleInboundExpiredSessionBareSelection(t *testing.T) {
	fx := &testFixture{sessions: newFakeSessionStore()}
	svc := newTestService(fx)
	ctx := context.Background()

	msg := inbound("m1", "1")
	require.NoError(t, fx.sessions.SaveSession(ctx, entity.PendingSession{
		UserID:         msg.UserID,
		ChatID:         msg.ChatID,
		OriginalText:   "Gajian tukang Wooftopia 2jt",
		SuggestedScope: entity.ScopeProject,
		Kind:           entity.SessionConfirm,
		CreatedAt:      time.Now().Add(-20 * time.Minute),
		TTLSeconds:     600,
	}))

	reply, err := svc.HandleInbound(ctx, msg)
	require.NoError(t, err)
	assert.Contains(t, reply, "Tidak ada pertanyaan aktif")
	assert.Empty(t, fx.ledger.commits)
}

func TestHandleInboundCancel(t *testing.T) {
	fx := &testFixture{}
	svc := newTestService(fx)
	ctx := context.Background()

	_, err := svc.HandleInbound(ctx, inbound("m1", "Gajian tukang Wooftopia 2jt"))
	require.NoError(t, err)

	reply, err := svc.HandleInbound(ctx, inbound("m2", "batal"))
	require.NoError(t, err)
	assert.Equal(t, "Oke, dibatalkan.", reply)

	sessions, _ := fx.sessions.CountSessions(ctx)
	assert.Equal(t, int64(0), sessions)

	reply, err = svc.HandleInbound(ctx, inbound("m3", "/cancel"))
	require.NoError(t, err)
	assert.Contains(t, reply, "Tidak ada transaksi")
}

func TestHandleInboundGroupGating(t *testing.T) {
	fx := &testFixture{}
	svc := newTestService(fx)
	ctx := context.Background()

	msg := inbound("m1", "Bayar listrik PLN 500rb")
	msg.IsGroup = true

	reply, err := svc.HandleInbound(ctx, msg)
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Empty(t, fx.ledger.commits)

	triggered := inbound("m2", "+catat Bayar listrik PLN 500rb")
	triggered.IsGroup = true

	reply, err = svc.HandleInbound(ctx, triggered)
	require.NoError(t, err)
	assert.Contains(t, reply, "Tercatat")
	assert.Len(t, fx.ledger.commits, 1)
}

func TestHandleInboundGroupQuotedReplyBypassesTrigger(t *testing.T) {
	fx := &testFixture{}
	svc := newTestService(fx)
	ctx := context.Background()

	start := inbound("m1", "+catat Gajian tukang Wooftopia 2jt")
	start.IsGroup = true
	_, err := svc.HandleInbound(ctx, start)
	require.NoError(t, err)

	key := entity.PendingKey(start.UserID, start.ChatID)
	require.NoError(t, fx.sessions.SetPromptMessageID(ctx, key, "wam-1"))

	answer := inbound("m2", "ya")
	answer.IsGroup = true
	answer.ReplyToMessageID = "wam-1"

	reply, err := svc.HandleInbound(ctx, answer)
	require.NoError(t, err)
	assert.Contains(t, reply, "Tercatat")
	assert.Len(t, fx.ledger.commits, 1)
}

func TestHandleInboundDuplicateDeliveryDropped(t *testing.T) {
	fx := &testFixture{}
	svc := newTestService(fx)
	ctx := context.Background()

	msg := inbound("m1", "Bayar listrik PLN 500rb")

	first, err := svc.HandleInbound(ctx, msg)
	require.NoError(t, err)
	assert.Contains(t, first, "Tercatat")

	second, err := svc.HandleInbound(ctx, msg)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Len(t, fx.ledger.commits, 1)
}

func TestHandleInboundDedupOutageFailsOpen(t *testing.T) {
	fx := &testFixture{dedup: newFakeDedupStore()}
	fx.dedup.err = errors.New("connection refused")
	svc := newTestService(fx)

	reply, err := svc.HandleInbound(context.Background(), inbound("m1", "Bayar listrik PLN 500rb"))
	require.NoError(t, err)
	assert.Contains(t, reply, "Tercatat")
}

func TestHandleInboundReceiptImageNeverAutoCommits(t *testing.T) {
	fx := &testFixture{gemini: &fakeGemini{text: "Bayar listrik PLN 500rb"}}
	svc := newTestService(fx)
	ctx := context.Background()

	msg := inbound("m1", "")
	msg.ImageBase64 = "dGVzdA=="

	prompt, err := svc.HandleInbound(ctx, msg)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Operational")
	assert.Empty(t, fx.ledger.commits)

	key := entity.PendingKey(msg.UserID, msg.ChatID)
	session, err := fx.sessions.GetSession(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, entity.SessionOCRConfirm, session.Kind)

	reply, err := svc.HandleInbound(ctx, inbound("m2", "1"))
	require.NoError(t, err)
	assert.Contains(t, reply, "Tercatat")

	require.Len(t, fx.ledger.commits, 1)
	assert.Equal(t, "OPERATIONAL", fx.ledger.commits[0].Scope)
	assert.Equal(t, int64(500000), fx.ledger.commits[0].Amount)
}

func TestHandleInboundUnreadableReceipt(t *testing.T) {
	fx := &testFixture{gemini: &fakeGemini{err: errors.New("model refused")}}
	svc := newTestService(fx)

	msg := inbound("m1", "")
	msg.ImageBase64 = "dGVzdA=="

	reply, err := svc.HandleInbound(context.Background(), msg)
	require.NoError(t, err)
	assert.Contains(t, reply, "tidak kebaca")
	assert.Empty(t, fx.ledger.commits)
}

func TestHandleInboundEmptyMessageSilent(t *testing.T) {
	svc := newTestService(&testFixture{})

	reply, err := svc.HandleInbound(context.Background(), inbound("m1", "   "))
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestHandleTransportMessageSendsAndThreadsPrompt(t *testing.T) {
	fx := &testFixture{sender: &fakeSender{nextID: "wam-9"}}
	svc := newTestService(fx)

	msg := inbound("m1", "Gajian tukang Wooftopia 2jt")
	svc.HandleTransportMessage(msg)

	require.Len(t, fx.sender.sent, 1)
	assert.Contains(t, fx.sender.sent[0], "Project")

	key := entity.PendingKey(msg.UserID, msg.ChatID)
	session, err := fx.sessions.GetSession(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "wam-9", session.PromptMessageID)
}

func TestShouldRespondInGroup(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		isGroup     bool
		quotes      bool
		wantRespond bool
		wantText    string
	}{
		{"private always responds", "halo", false, false, true, "halo"},
		{"group without trigger silent", "Bayar listrik 500rb", true, false, false, ""},
		{"trigger stripped", "+catat Bayar listrik 500rb", true, false, true, "Bayar listrik 500rb"},
		{"bot trigger", "+bot Bon 500rb", true, false, true, "Bon 500rb"},
		{"slash command passes whole", "/cancel", true, false, true, "/cancel"},
		{"quoted prompt bypasses", "ya", true, true, true, "ya"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			respond, cleaned := shouldRespondInGroup(tt.text, tt.isGroup, tt.quotes)
			assert.Equal(t, tt.wantRespond, respond)
			if tt.wantRespond {
				assert.Equal(t, tt.wantText, cleaned)
			}
		})
	}
}
