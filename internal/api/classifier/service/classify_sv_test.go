package classifierService

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"LedgerBot/internal/entity"
	"LedgerBot/pkg/semantic"
)

func TestClassifyTextStrongOperationalCommits(t *testing.T) {
	svc := newTestService(&testFixture{})

	decision, signals := svc.ClassifyText(context.Background(), "Bayar listrik PLN 500rb", "user-1")

	assert.Equal(t, entity.ActionAuto, decision.Action)
	assert.Equal(t, entity.ScopeOperational, decision.Scope)
	assert.GreaterOrEqual(t, decision.Confidence, 0.85)
	assert.True(t, signals.HasAmount)
	assert.Equal(t, int64(500000), signals.Amount)
}

func TestClassifyTextMediumProjectConfirms(t *testing.T) {
	svc := newTestService(&testFixture{})

	decision, signals := svc.ClassifyText(context.Background(), "Gajian tukang Wooftopia 2jt", "user-1")

	assert.Equal(t, entity.ActionConfirm, decision.Action)
	assert.Equal(t, entity.ScopeProject, decision.Scope)
	assert.GreaterOrEqual(t, decision.Confidence, 0.60)
	assert.Less(t, decision.Confidence, 0.85)
	assert.NotEmpty(t, decision.Prompt)
	assert.Equal(t, int64(2000000), signals.Amount)
}

func TestClassifyTextAmbiguousAsks(t *testing.T) {
	svc := newTestService(&testFixture{})

	decision, _ := svc.ClassifyText(context.Background(), "Gajian 5jt", "user-1")

	assert.Equal(t, entity.ActionAsk, decision.Action)
	assert.Equal(t, entity.ScopeAmbiguous, decision.Scope)
	assert.NotEmpty(t, decision.Prompt)
}

func TestClassifyTextCasualChatIgnored(t *testing.T) {
	svc := newTestService(&testFixture{})

	decision, _ := svc.ClassifyText(context.Background(), "halo apa kabar", "user-1")

	assert.Equal(t, entity.ActionIgnore, decision.Action)
}

func TestClassifyTextPatternBoostRaisesBand(t *testing.T) {
	fx := &testFixture{patterns: newFakePatternStore()}
	svc := newTestService(fx)
	ctx := context.Background()

	text := "Gajian tukang Wooftopia 2jt"

	before, _ := svc.ClassifyText(ctx, text, "user-1")
	require.Equal(t, entity.ActionConfirm, before.Action)

	fx.patterns.patterns[normalizeTemplate(text)] = entity.LearnedPattern{
		Template:          normalizeTemplate(text),
		Scope:             entity.ScopeProject,
		ConfirmationCount: 4,
	}

	after, _ := svc.ClassifyText(ctx, text, "user-1")
	assert.Equal(t, entity.ActionAuto, after.Action)
	assert.Equal(t, entity.ScopeProject, after.Scope)
	assert.InDelta(t, before.Confidence+0.20, after.Confidence, 1e-9)
}

func TestClassifyTextPatternResolvesAmbiguousScope(t *testing.T) {
	fx := &testFixture{patterns: newFakePatternStore()}
	svc := newTestService(fx)

	text := "Gajian 5jt"
	fx.patterns.patterns[normalizeTemplate(text)] = entity.LearnedPattern{
		Template:          normalizeTemplate(text),
		Scope:             entity.ScopeOperational,
		ConfirmationCount: 4,
	}

	decision, _ := svc.ClassifyText(context.Background(), text, "user-1")
	assert.Equal(t, entity.ActionConfirm, decision.Action)
	assert.Equal(t, entity.ScopeOperational, decision.Scope)
	assert.InDelta(t, 0.60, decision.Confidence, 1e-9)
}

func TestClassifyTextSemanticResolvesAmbiguous(t *testing.T) {
	fx := &testFixture{semantic: &fakeSemantic{verdict: semantic.Verdict{
		Scope:      entity.ScopeProject,
		Confidence: 0.75,
		Reasoning:  "field payroll phrasing",
	}}}
	svc := newTestService(fx)

	decision, _ := svc.ClassifyText(context.Background(), "Gajian 5jt", "user-1")

	assert.Equal(t, 1, fx.semantic.calls)
	assert.Equal(t, entity.ActionConfirm, decision.Action)
	assert.Equal(t, entity.ScopeProject, decision.Scope)
	assert.InDelta(t, 0.75, decision.Confidence, 1e-9)
}

func TestClassifyTextSemanticOutageFallsBack(t *testing.T) {
	fx := &testFixture{semantic: &fakeSemantic{err: errors.New("upstream timeout")}}
	svc := newTestService(fx)

	decision, _ := svc.ClassifyText(context.Background(), "Gajian 5jt", "user-1")

	assert.Equal(t, entity.ActionAsk, decision.Action)
	assert.Equal(t, entity.ScopeAmbiguous, decision.Scope)
}

func TestClassifyTextSemanticNotConsultedWhenStrong(t *testing.T) {
	fx := &testFixture{semantic: &fakeSemantic{verdict: semantic.Verdict{
		Scope:      entity.ScopeProject,
		Confidence: 0.99,
	}}}
	svc := newTestService(fx)

	decision, _ := svc.ClassifyText(context.Background(), "Bayar listrik PLN 500rb", "user-1")

	assert.Equal(t, 0, fx.semantic.calls)
	assert.Equal(t, entity.ActionAuto, decision.Action)
	assert.Equal(t, entity.ScopeOperational, decision.Scope)
}

func TestCommitResolvedWithoutAmountAsksForIt(t *testing.T) {
	fx := &testFixture{}
	svc := newTestService(fx)

	reply, err := svc.commitResolved(context.Background(), entity.InboundMessage{UserID: "user-1"},
		"Bayar tukang Wooftopia", entity.ScopeProject, entity.ContextSignals{})

	require.NoError(t, err)
	assert.Contains(t, reply, "Nominalnya belum kebaca")
	assert.Empty(t, fx.ledger.commits)
}

func TestCommitResolvedProjectDefaultsProjectName(t *testing.T) {
	fx := &testFixture{}
	svc := newTestService(fx)

	reply, err := svc.commitResolved(context.Background(), entity.InboundMessage{UserID: "user-1"},
		"Bon tukang 300rb", entity.ScopeProject, entity.ContextSignals{HasAmount: true, Amount: 300000})

	require.NoError(t, err)
	require.Len(t, fx.ledger.commits, 1)
	assert.Equal(t, "Umum", fx.ledger.commits[0].ProjectName)
	assert.Contains(t, reply, "Tercatat")
	assert.Contains(t, reply, "Rp 300.000")
	assert.Contains(t, reply, "Project: Umum")
}

func TestCommitResolvedCarriesFee(t *testing.T) {
	fx := &testFixture{}
	svc := newTestService(fx)

	reply, err := svc.commitResolved(context.Background(), entity.InboundMessage{UserID: "user-1"},
		"Transfer tukang 2jt biaya admin 6500", entity.ScopeProject,
		entity.ContextSignals{HasAmount: true, Amount: 2000000, Fee: 6500})

	require.NoError(t, err)
	require.Len(t, fx.ledger.commits, 1)
	assert.Equal(t, int64(6500), fx.ledger.commits[0].Fee)
	assert.Contains(t, reply, "Biaya admin: Rp 6.500")
}

func TestCommitResolvedLedgerFailureReadableReply(t *testing.T) {
	fx := &testFixture{ledger: &fakeLedgerService{err: errors.New("db down")}}
	svc := newTestService(fx)

	reply, err := svc.commitResolved(context.Background(), entity.InboundMessage{UserID: "user-1"},
		"Bayar listrik 500rb", entity.ScopeOperational,
		entity.ContextSignals{HasAmount: true, Amount: 500000})

	assert.Error(t, err)
	assert.Contains(t, reply, "gagal dicatat")
}

func TestFormatRupiah(t *testing.T) {
	assert.Equal(t, "500", formatRupiah(500))
	assert.Equal(t, "6.500", formatRupiah(6500))
	assert.Equal(t, "150.000", formatRupiah(150000))
	assert.Equal(t, "1.200.000", formatRupiah(1200000))
}
