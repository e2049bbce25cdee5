package service

import (
	"context"

	"github.com/peerpresence/server-go/internal/database"
)

// Transactor runs fn inside a database transaction. *database.DB satisfies it.
type Transactor interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}
