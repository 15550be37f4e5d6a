package customer

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, name, email, passwordHash, role string) (*Customer, error)
	FindByEmail(ctx context.Context, email string) (*Customer, error)
	FindByID(ctx context.Context, id int) (*Customer, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Deactivate(ctx context.Context, id int) error
	AddLoyaltyPointsTx(ctx context.Context, tx *sqlx.Tx, id int, points int64) error
}
