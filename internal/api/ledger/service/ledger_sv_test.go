package ledgerService

import (
	"errors"
	"io"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"

	"LedgerBot/internal/api/ledger"
	ledgerRepository "LedgerBot/internal/api/ledger/repository"
	"LedgerBot/internal/entity"
	"github.com/sirupsen/logrus"
)

type fakeLedgerStore struct {
	created   []entity.LedgerTransaction
	createErr error

	recent      []entity.LedgerTransaction
	byScope     []entity.LedgerTransaction
	gotScope    string
	gotLimit    int
	transaction entity.LedgerTransaction
}

func (f *fakeLedgerStore) CreateTransaction(_ context.Context, transaction entity.LedgerTransaction) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, transaction)
	return nil
}

func (f *fakeLedgerStore) GetTransactionByID(_ context.Context, _ string) (entity.LedgerTransaction, error) {
	return f.transaction, nil
}

func (f *fakeLedgerStore) GetRecentTransactions(_ context.Context, limit int) ([]entity.LedgerTransaction, error) {
	f.gotLimit = limit
	return f.recent, nil
}

func (f *fakeLedgerStore) GetTransactionsByScope(_ context.Context, scope string, limit int) ([]entity.LedgerTransaction, error) {
	f.gotScope = scope
	f.gotLimit = limit
	return f.byScope, nil
}

type fakeLedgerRepo struct {
	store     *fakeLedgerStore
	clientErr error
}

func (f *fakeLedgerRepo) NewClient(_ bool) (ledgerRepository.Client, error) {
	if f.clientErr != nil {
		return ledgerRepository.Client{}, f.clientErr
	}
	return ledgerRepository.Client{
		Ledger:   f.store,
		Commit:   func() error { return nil },
		Rollback: func() error { return nil },
	}, nil
}

type fakeUtils struct {
	ulidErr error
}

func (f *fakeUtils) NewULIDFromTimestamp(_ time.Time) (string, error) {
	if f.ulidErr != nil {
		return "", f.ulidErr
	}
	return "01TESTULID0000000000000000", nil
}

func (f *fakeUtils) ValidateImageFile(_ *multipart.FileHeader) error { return nil }

func (f *fakeUtils) ConvertFileToBase64(_ multipart.File) (string, error) { return "", nil }

func (f *fakeUtils) OptimizeImageForOCR(data []byte, _, _, _ int) ([]byte, error) {
	return data, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestLedgerService(store *fakeLedgerStore, wallets map[entity.Scope]string) ILedgerService {
	if wallets == nil {
		wallets = map[entity.Scope]string{
			entity.ScopeOperational: "wallet-operational",
			entity.ScopeProject:     "wallet-project",
		}
	}
	return New(testLogger(), &fakeLedgerRepo{store: store}, &fakeUtils{}, wallets)
}

func TestCommitWritesResolvedTransaction(t *testing.T) {
	store := &fakeLedgerStore{}
	svc := newTestLedgerService(store, nil)

	id, err := svc.Commit(context.Background(), ledger.CommitRequest{
		Scope:       "PROJECT",
		ProjectName: "Wooftopia",
		Amount:      2000000,
		Fee:         6500,
		Description: "Bayar tukang Wooftopia 2jt",
		SourceUser:  "628111@s.whatsapp.net",
	})

	require.NoError(t, err)
	assert.Equal(t, "01TESTULID0000000000000000", id)

	require.Len(t, store.created, 1)
	created := store.created[0]
	assert.Equal(t, "wallet-project", created.Wallet)
	assert.Equal(t, "Wooftopia", created.ProjectName)
	assert.Equal(t, int64(2000000), created.Amount)
	assert.Equal(t, int64(6500), created.Fee)
}

func TestCommitFailsWithoutWallet(t *testing.T) {
	store := &fakeLedgerStore{}
	svc := newTestLedgerService(store, map[entity.Scope]string{
		entity.ScopeOperational: "wallet-operational",
	})

	_, err := svc.Commit(context.Background(), ledger.CommitRequest{
		Scope:       "PROJECT",
		ProjectName: "Wooftopia",
		Amount:      100000,
		Description: "Bayar tukang",
	})

	assert.ErrorIs(t, err, ledger.ErrMissingWallet)
	assert.Empty(t, store.created)
}

func TestCommitRejectsProjectWithoutName(t *testing.T) {
	store := &fakeLedgerStore{}
	svc := newTestLedgerService(store, nil)

	_, err := svc.Commit(context.Background(), ledger.CommitRequest{
		Scope:       "PROJECT",
		Amount:      100000,
		Description: "Bayar tukang",
	})

	assert.ErrorIs(t, err, ledger.ErrMissingProject)
}

func TestCommitRejectsInvalidScopeAndAmount(t *testing.T) {
	store := &fakeLedgerStore{}
	svc := newTestLedgerService(store, nil)

	_, err := svc.Commit(context.Background(), ledger.CommitRequest{
		Scope:  "AMBIGUOUS",
		Amount: 100000,
	})
	assert.ErrorIs(t, err, ledger.ErrMissingWallet)

	_, err = svc.Commit(context.Background(), ledger.CommitRequest{
		Scope:       "OPERATIONAL",
		Amount:      0,
		Description: "Bayar listrik",
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestCommitStoreFailure(t *testing.T) {
	store := &fakeLedgerStore{createErr: errors.New("connection refused")}
	svc := newTestLedgerService(store, nil)

	_, err := svc.Commit(context.Background(), ledger.CommitRequest{
		Scope:       "OPERATIONAL",
		Amount:      500000,
		Description: "Bayar listrik",
	})

	assert.ErrorIs(t, err, ledger.ErrCreateTransaction)
}

func TestGetRecentTransactionsClampsLimit(t *testing.T) {
	store := &fakeLedgerStore{}
	svc := newTestLedgerService(store, nil)

	_, err := svc.GetRecentTransactions(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 20, store.gotLimit)

	_, err = svc.GetRecentTransactions(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, 20, store.gotLimit)

	_, err = svc.GetRecentTransactions(context.Background(), 50)
	require.NoError(t, err)
	assert.Equal(t, 50, store.gotLimit)
}

func TestGetTransactionsByScopeValidatesScope(t *testing.T) {
	store := &fakeLedgerStore{}
	svc := newTestLedgerService(store, nil)

	_, err := svc.GetTransactionsByScope(context.Background(), "AMBIGUOUS", 10)
	assert.ErrorIs(t, err, ledger.ErrInvalidScope)

	_, err = svc.GetTransactionsByScope(context.Background(), "PROJECT", 10)
	require.NoError(t, err)
	assert.Equal(t, "PROJECT", store.gotScope)
}
