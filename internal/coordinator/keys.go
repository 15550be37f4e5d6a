package coordinator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"
)

// fetchResult returns the stored outcome of a previously committed operation,
// or nil when the key has never completed.
func fetchResult(ctx context.Context, ext sqlx.ExtContext, key string) (*Result, error) {
	var raw []byte
	err := sqlx.GetContext(ctx, ext, &raw, `SELECT result FROM idempotency_keys WHERE key = $1`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, err
	}
	res.AlreadyProcessed = true
	return &res, nil
}

// claimKey inserts the key inside the operation's transaction. The result is
// written in the same transaction, so a committed key always has its outcome
// and an aborted attempt leaves no trace.
func claimKey(ctx context.Context, tx *sqlx.Tx, key string) (bool, error) {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO idempotency_keys (key, result) VALUES ($1, 'null'::jsonb)
		 ON CONFLICT (key) DO NOTHING`,
		key,
	)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func storeResult(ctx context.Context, tx *sqlx.Tx, key string, res *Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE idempotency_keys SET result = $1 WHERE key = $2`, raw, key,
	)
	return err
}
