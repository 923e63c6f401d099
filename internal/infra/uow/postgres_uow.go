package uow

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/infra/db"
	"petcare-booking/internal/infra/repository"
	"petcare-booking/internal/pkg/errs"
	"petcare-booking/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"
)

var (
	errTransactionBegin   = errs.New("failed to begin transaction")
	errTransactionCommit  = errs.New("failed to commit transaction")
	errMaxRetriesExceeded = errs.New("transaction failed after max retries")
)

type PostgresUoW struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresUoW(pool *pgxpool.Pool, logger *slog.Logger) shared.UnitOfWork {
	return &PostgresUoW{
		pool:   pool,
		logger: logger,
	}
}

// ReadCommitted is enough here: overlapping writers are serialized by the
// employee-day advisory lock and the exclusion constraint.
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.runInTxWithOptions(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// Read-only transaction for consistent multi-table snapshots
func (u *PostgresUoW) WithinReadOnly(ctx context.Context, fn func(ctx context.Context, repos shared.Repositories) error) error {
	return u.runReadOnlyTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

// Avoids defer accumulation in retry loops to prevent connection leaks
func (u *PostgresUoW) runInTxWithOptions(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, tx shared.Tx) error) error {
	const maxRetries = 3
	base := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		pgxTx, err := u.pool.BeginTx(ctx, options)
		if err != nil {
			return errs.Mark(err, errTransactionBegin)
		}

		tx := &pgTx{
			repos:  newRepos(pgxTx, u.logger),
			pgxTx:  pgxTx,
			logger: u.logger,
		}

		err = fn(ctx, tx)
		if err == nil {
			if err = pgxTx.Commit(ctx); err == nil {
				return nil
			}
			err = errs.Mark(err, errTransactionCommit)
		}

		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				u.logger.Warn("rollback failed", "attempt", attempt+1, "error", rollbackErr.Error())
			}
		}

		if !shouldRetry(err, attempt, maxRetries) {
			if attempt == maxRetries && isRetryableError(err) {
				u.logger.Error("transaction failed after max retries",
					"attempts", attempt+1,
					"error", err.Error())
				return errs.Mark(err, errMaxRetriesExceeded)
			}
			return err
		}

		waitTime := calculateBackoff(attempt, base)

		u.logger.Warn("retrying transaction due to retryable error",
			"attempt", attempt+1,
			"wait_ms", waitTime.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return errMaxRetriesExceeded
}

func (u *PostgresUoW) runReadOnlyTx(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, repos shared.Repositories) error) error {
	pgxTx, err := u.pool.BeginTx(ctx, options)
	if err != nil {
		return errs.Mark(err, errTransactionBegin)
	}

	defer func() {
		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				u.logger.Warn("failed to rollback read-only transaction", "error", rollbackErr.Error())
			}
		}
	}()

	if err := fn(ctx, newRepos(pgxTx, u.logger)); err != nil {
		return err
	}

	return pgxTx.Commit(ctx)
}

func shouldRetry(err error, attempt, maxRetries int) bool {
	return isRetryableError(err) && attempt < maxRetries
}

func calculateBackoff(attempt int, base time.Duration) time.Duration {
	waitTime := time.Duration(1<<attempt) * base
	jitter := cryptoRandInt63n(int64(waitTime / 5))
	return waitTime + time.Duration(jitter)
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	// #nosec G115 -- Intentionally safe conversion after masking
	return int64(uval) % n
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	default:
		return false
	}
}

// repos builds repositories lazily over one connection or transaction.
type repos struct {
	dbtx   db.DBTX
	logger *slog.Logger

	pets      *repository.PetRepository
	services  *repository.ServiceRepository
	employees *repository.EmployeeRepository
	customers *repository.CustomerRepository
	schedules *repository.ScheduleRepository
	bookings  *repository.BookingRepository
}

func newRepos(dbtx db.DBTX, logger *slog.Logger) *repos {
	return &repos{dbtx: dbtx, logger: logger}
}

func (r *repos) Pets() shared.PetRepository {
	if r.pets == nil {
		r.pets = repository.NewPetRepository(r.dbtx, r.logger)
	}
	return r.pets
}

func (r *repos) Services() shared.ServiceRepository {
	if r.services == nil {
		r.services = repository.NewServiceRepository(r.dbtx, r.logger)
	}
	return r.services
}

func (r *repos) Employees() shared.EmployeeRepository {
	if r.employees == nil {
		r.employees = repository.NewEmployeeRepository(r.dbtx, r.logger)
	}
	return r.employees
}

func (r *repos) Customers() shared.CustomerRepository {
	if r.customers == nil {
		r.customers = repository.NewCustomerRepository(r.dbtx, r.logger)
	}
	return r.customers
}

func (r *repos) Schedules() shared.ScheduleRepository {
	if r.schedules == nil {
		r.schedules = repository.NewScheduleRepository(r.dbtx, r.logger)
	}
	return r.schedules
}

func (r *repos) Bookings() shared.BookingRepository {
	if r.bookings == nil {
		r.bookings = repository.NewBookingRepository(r.dbtx, r.logger)
	}
	return r.bookings
}

type pgTx struct {
	*repos
	pgxTx  pgx.Tx
	logger *slog.Logger
}

func (t *pgTx) LockEmployeeDay(ctx context.Context, employeeID uuid.UUID, date schedule.Date) error {
	return repository.LockEmployeeDay(ctx, t.pgxTx, t.logger, employeeID, date)
}
