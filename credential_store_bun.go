package authclient

import (
	"context"
	"database/sql"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const credentialSlot = "bearer"

// StoredCredential is the bun model backing the credential slot.
type StoredCredential struct {
	bun.BaseModel `bun:"table:client_credentials,alias:cc"`

	Slot  string `bun:"slot,pk"`
	Token string `bun:"token,notnull"`
}

// BunCredentialStore keeps the credential in a local database, for clients
// that already carry one for chat history or caches. One table, one row.
type BunCredentialStore struct {
	db *bun.DB
}

// NewBunCredentialStore ensures the backing table exists and returns the store.
func NewBunCredentialStore(ctx context.Context, db *bun.DB) (*BunCredentialStore, error) {
	if db == nil {
		return nil, goerrors.New("bun credential store requires a database", goerrors.CategoryBadInput)
	}

	if _, err := db.NewCreateTable().
		Model((*StoredCredential)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to create credential table")
	}

	return &BunCredentialStore{db: db}, nil
}

// OpenSQLiteCredentialStore opens (or creates) a sqlite database at path and
// returns a credential store on top of it. Close releases the database.
func OpenSQLiteCredentialStore(ctx context.Context, path string) (*BunCredentialStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to open credential database")
	}

	store, err := NewBunCredentialStore(ctx, bun.NewDB(sqldb, sqlitedialect.New()))
	if err != nil {
		sqldb.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *BunCredentialStore) Close() error {
	return s.db.Close()
}

// Load returns the stored credential, or ErrNoCredential when the slot is empty.
func (s *BunCredentialStore) Load(ctx context.Context) (string, error) {
	cred := &StoredCredential{}
	err := s.db.NewSelect().
		Model(cred).
		Where("slot = ?", credentialSlot).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNoCredential
		}
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load credential row")
	}
	return cred.Token, nil
}

// Store upserts the slot row, replacing any previous credential.
func (s *BunCredentialStore) Store(ctx context.Context, raw string) error {
	cred := &StoredCredential{Slot: credentialSlot, Token: raw}
	_, err := s.db.NewInsert().
		Model(cred).
		On("CONFLICT (slot) DO UPDATE").
		Set("token = EXCLUDED.token").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to store credential row")
	}
	return nil
}

// Clear deletes the slot row. Deleting a missing row is a no-op.
func (s *BunCredentialStore) Clear(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*StoredCredential)(nil)).
		Where("slot = ?", credentialSlot).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to clear credential row")
	}
	return nil
}
