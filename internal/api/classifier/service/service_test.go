package classifierService

import (
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"LedgerBot/internal/api/classifier"
	classifierRepository "LedgerBot/internal/api/classifier/repository"
	"LedgerBot/internal/api/ledger"
	"LedgerBot/internal/entity"
	"LedgerBot/pkg/detector"
	"LedgerBot/pkg/gemini"
	"LedgerBot/pkg/semantic"
)

// In-memory stand-ins for the Redis-backed stores. They implement the same
// lazy session expiry the real repository does so dialog tests can exercise
// TTL behavior by backdating CreatedAt.

type fakePatternStore struct {
	mu       sync.Mutex
	patterns map[string]entity.LearnedPattern
	getErr   error
	listErr  error
	saveErr  error
}

func newFakePatternStore() *fakePatternStore {
	return &fakePatternStore{patterns: make(map[string]entity.LearnedPattern)}
}

func (f *fakePatternStore) GetPattern(_ context.Context, template string) (entity.LearnedPattern, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return entity.LearnedPattern{}, f.getErr
	}
	pattern, ok := f.patterns[template]
	if !ok {
		return entity.LearnedPattern{}, classifier.ErrPatternNotFound
	}
	return pattern, nil
}

func (f *fakePatternStore) ListPatterns(_ context.Context) ([]entity.LearnedPattern, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	patterns := make([]entity.LearnedPattern, 0, len(f.patterns))
	for _, pattern := range f.patterns {
		patterns = append(patterns, pattern)
	}
	return patterns, nil
}

func (f *fakePatternStore) SavePattern(_ context.Context, pattern entity.LearnedPattern) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.patterns[pattern.Template] = pattern
	return nil
}

func (f *fakePatternStore) PurgePatterns(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns = make(map[string]entity.LearnedPattern)
	return nil
}

func (f *fakePatternStore) CountPatterns(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.patterns)), nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]entity.PendingSession
	saveErr  error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]entity.PendingSession)}
}

func (f *fakeSessionStore) GetSession(_ context.Context, key string) (entity.PendingSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[key]
	if !ok {
		return entity.PendingSession{}, classifier.ErrSessionNotFound
	}
	if session.IsExpired(time.Now()) {
		delete(f.sessions, key)
		return entity.PendingSession{}, classifier.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessionStore) SaveSession(_ context.Context, session entity.PendingSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.sessions[entity.PendingKey(session.UserID, session.ChatID)] = session
	return nil
}

func (f *fakeSessionStore) DeleteSession(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, key)
	return nil
}

func (f *fakeSessionStore) SetPromptMessageID(_ context.Context, key string, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[key]
	if !ok {
		return classifier.ErrSessionNotFound
	}
	session.PromptMessageID = messageID
	f.sessions[key] = session
	return nil
}

func (f *fakeSessionStore) CountSessions(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.sessions)), nil
}

type fakeDedupStore struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeDedupStore() *fakeDedupStore {
	return &fakeDedupStore{seen: make(map[string]bool)}
}

func (f *fakeDedupStore) MarkSeen(_ context.Context, messageID string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.seen[messageID] {
		return false, nil
	}
	f.seen[messageID] = true
	return true, nil
}

type fakeRepository struct {
	client    classifierRepository.Client
	clientErr error
}

func (f *fakeRepository) NewClient() (classifierRepository.Client, error) {
	return f.client, f.clientErr
}

type fakeLedgerService struct {
	mu      sync.Mutex
	commits []ledger.CommitRequest
	err     error
	nextID  string
}

func (f *fakeLedgerService) Commit(_ context.Context, req ledger.CommitRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.commits = append(f.commits, req)
	if f.nextID != "" {
		return f.nextID, nil
	}
	return "01TESTULID0000000000000000", nil
}

func (f *fakeLedgerService) GetRecentTransactions(_ context.Context, _ int) ([]entity.LedgerTransaction, error) {
	return nil, nil
}

func (f *fakeLedgerService) GetTransactionsByScope(_ context.Context, _ string, _ int) ([]entity.LedgerTransaction, error) {
	return nil, nil
}

type fakeSemantic struct {
	verdict semantic.Verdict
	err     error
	calls   int
}

func (f *fakeSemantic) ClassifyScope(_ context.Context, _ string, _ entity.ContextSignals) (semantic.Verdict, error) {
	f.calls++
	if f.err != nil {
		return semantic.Verdict{}, f.err
	}
	return f.verdict, nil
}

type fakeGemini struct {
	text string
	err  error
}

func (f *fakeGemini) AnalyzeImage(_ context.Context, _ string, _ string) (string, error) {
	return f.text, f.err
}

func (f *fakeGemini) ExtractReceiptText(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []string
	nextID string
	err    error
}

func (f *fakeSender) SendMessage(_ context.Context, _ string, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, text)
	return f.nextID, nil
}

type testFixture struct {
	patterns *fakePatternStore
	sessions *fakeSessionStore
	dedup    *fakeDedupStore
	ledger   *fakeLedgerService
	semantic *fakeSemantic
	gemini   *fakeGemini
	sender   *fakeSender
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestService(fx *testFixture) *classifierService {
	if fx.patterns == nil {
		fx.patterns = newFakePatternStore()
	}
	if fx.sessions == nil {
		fx.sessions = newFakeSessionStore()
	}
	if fx.dedup == nil {
		fx.dedup = newFakeDedupStore()
	}
	if fx.ledger == nil {
		fx.ledger = &fakeLedgerService{}
	}

	repo := &fakeRepository{client: classifierRepository.Client{
		Pattern: fx.patterns,
		Session: fx.sessions,
		Dedup:   fx.dedup,
	}}

	var sem semantic.ISemantic
	if fx.semantic != nil {
		sem = fx.semantic
	}

	var gem gemini.IGemini
	if fx.gemini != nil {
		gem = fx.gemini
	}

	var sender Sender
	if fx.sender != nil {
		sender = fx.sender
	}

	svc := New(
		testLogger(),
		repo,
		detector.New(detector.DefaultSignalIndex()),
		sem,
		fx.ledger,
		gem,
		sender,
		classifier.DefaultConfig(),
	)

	return svc.(*classifierService)
}
