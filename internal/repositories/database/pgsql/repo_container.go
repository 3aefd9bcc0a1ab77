package pgsql

import (
	portsrepo "github.com/SscSPs/voucher_posting_service/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:    newPgxAccountRepository(dbPool),
		VoucherRepo:    newPgxVoucherRepository(dbPool),
		LedgerRepo:     newPgxLedgerRepository(dbPool),
		ProcessRepo:    newPgxVoucherProcessRepository(dbPool),
		PeriodRepo:     newPgxPeriodRepository(dbPool),
		PermissionRepo: newPgxPermissionRepository(dbPool),
		ConfigRepo:     newPgxVoucherConfigRepository(dbPool),
	}
}
