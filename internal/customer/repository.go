package customer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrCustomerNotFound = errors.New("customer not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, email, passwordHash, role string) (*Customer, error) {
	query := `
		INSERT INTO customers (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, password_hash, role, loyalty_points, active, created_at
	`

	var c Customer
	err := r.db.GetContext(ctx, &c, query, name, email, passwordHash, role)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Customer, error) {
	query := `
		SELECT id, name, email, password_hash, role, loyalty_points, active, created_at
		FROM customers
		WHERE email = $1 AND active = TRUE
	`

	var c Customer
	err := r.db.GetContext(ctx, &c, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	return &c, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*Customer, error) {
	query := `
		SELECT id, name, email, password_hash, role, loyalty_points, active, created_at
		FROM customers
		WHERE id = $1
	`

	var c Customer
	err := r.db.GetContext(ctx, &c, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	return &c, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM customers WHERE email = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, email)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// Deactivate soft-disables the account. Customers are never deleted; their
// ledger history must stay replayable.
func (r *repository) Deactivate(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE customers SET active = FALSE WHERE id = $1 AND active = TRUE`, id,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (r *repository) AddLoyaltyPointsTx(ctx context.Context, tx *sqlx.Tx, id int, points int64) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE customers SET loyalty_points = loyalty_points + $1 WHERE id = $2`, points, id,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCustomerNotFound
	}
	return nil
}
