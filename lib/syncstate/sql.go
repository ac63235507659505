package syncstate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	configlibsql "netentreprise-backend/lib/configutil/libsql"
	"netentreprise-backend/pkg/migrations"
)

const Schema = `
CREATE TABLE IF NOT EXISTS account_state (
	account TEXT PRIMARY KEY,
	data TEXT NOT NULL
);
`

// SQLBackend stores states as json in a sqlite or libsql database.
type SQLBackend struct {
	db *sql.DB
}

func NewSQLBackend(db *sql.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

// Open opens the database described by `config` and creates the state table.
func Open(ctx context.Context, config configlibsql.Struct) (*SQLBackend, error) {
	db, err := config.OpenDB()
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	err = migrations.Apply(ctx, db, Schema)
	if err != nil {
		db.Close()
		return nil, err
	}
	return NewSQLBackend(db), nil
}

func (b *SQLBackend) Close() error {
	return b.db.Close()
}

func (b *SQLBackend) ForAccount(account string) Store {
	return sqlStore{db: b.db, account: account}
}

func (b *SQLBackend) Accounts(ctx context.Context) ([]string, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT account FROM account_state ORDER BY account")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var account string
		err = rows.Scan(&account)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlStore struct {
	db      *sql.DB
	account string
}

func get(ctx context.Context, q queryer, account string) (State, error) {
	var data string
	err := q.QueryRowContext(ctx, "SELECT data FROM account_state WHERE account = ?", account).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("get state of %s: %w", account, err)
	}

	var state State
	err = json.Unmarshal([]byte(data), &state)
	if err != nil {
		return State{}, fmt.Errorf("decode state of %s: %w", account, err)
	}
	return state, nil
}

func (s sqlStore) Get(ctx context.Context) (State, error) {
	return get(ctx, s.db, s.account)
}

func (s sqlStore) Set(ctx context.Context, state State, opts SetOptions) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set state of %s: %w", s.account, err)
	}
	defer tx.Rollback()

	current, err := get(ctx, tx, s.account)
	if err != nil {
		return err
	}
	next, err := apply(current, state, opts)
	if err != nil {
		return err
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode state of %s: %w", s.account, err)
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO account_state (account, data) VALUES (?, ?)
		ON CONFLICT (account) DO UPDATE SET data = excluded.data`,
		s.account, string(data),
	)
	if err != nil {
		return fmt.Errorf("set state of %s: %w", s.account, err)
	}
	return tx.Commit()
}
