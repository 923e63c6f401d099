//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// DBLike is satisfied by a pool, a connection or a transaction.
type DBLike interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func CreateTestCustomer(t *testing.T, db DBLike, id uuid.UUID, name string) uuid.UUID {
	t.Helper()

	email := strings.ToLower(name) + "-" + id.String()[:8] + "@example.com"
	_, err := db.Exec(context.Background(),
		"INSERT INTO customers (id, name, email) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING",
		id, name, email)
	require.NoError(t, err)
	return id
}

func CreateTestPet(t *testing.T, db DBLike, ownerID uuid.UUID, name string) uuid.UUID {
	t.Helper()

	petID := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO pets (id, owner_id, name) VALUES ($1, $2, $3)",
		petID, ownerID, name)
	require.NoError(t, err)
	return petID
}

func CreateTestService(t *testing.T, db DBLike, name string, durationMin int, priceCents int64, specialties ...string) uuid.UUID {
	t.Helper()

	serviceID := uuid.New()
	if specialties == nil {
		specialties = []string{}
	}
	_, err := db.Exec(context.Background(),
		"INSERT INTO services (id, name, category, duration_min, price_cents, required_specialties) VALUES ($1, $2, $3, $4, $5, $6)",
		serviceID, name, "grooming", durationMin, priceCents, specialties)
	require.NoError(t, err)
	return serviceID
}

// CreateTestEmployee inserts a bookable employee working 09:00-17:00 every day.
// createdAt orders employees for auto-assignment.
func CreateTestEmployee(t *testing.T, db DBLike, id uuid.UUID, createdAt time.Time, specialties ...string) uuid.UUID {
	t.Helper()

	ctx := context.Background()
	if specialties == nil {
		specialties = []string{}
	}
	_, err := db.Exec(ctx,
		"INSERT INTO employees (id, name, specialties, created_at) VALUES ($1, $2, $3, $4)",
		id, "Groomer "+id.String()[:4], specialties, createdAt)
	require.NoError(t, err)

	for dow := 0; dow < 7; dow++ {
		_, err := db.Exec(ctx,
			`INSERT INTO shift_templates (id, employee_id, day_of_week, start_minute, end_minute, effective_from)
			 VALUES ($1, $2, $3, 540, 1020, DATE '2020-01-01')`,
			uuid.New(), id, dow)
		require.NoError(t, err)
	}
	return id
}

// CreateNoShowBooking inserts a booking that already ended as a no-show on date.
func CreateNoShowBooking(t *testing.T, db DBLike, customerID, petID, employeeID, serviceID uuid.UUID, date time.Time) {
	t.Helper()

	now := time.Now()
	_, err := db.Exec(context.Background(),
		`INSERT INTO bookings (id, customer_id, pet_id, employee_id, service_id, scheduled_date, start_minute, end_minute,
		                       service_snapshot, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 600, 660, '{"name":"Bath","priceCents":4000,"durationMin":60,"category":"grooming"}', 'no_show', $7, $7)`,
		uuid.New(), customerID, petID, employeeID, serviceID, date, now)
	require.NoError(t, err)
}

// CountBlockingBookings counts the bookings of an employee on date that still
// occupy their slot.
func CountBlockingBookings(t *testing.T, db DBLike, employeeID uuid.UUID, date string) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(),
		`SELECT count(*) FROM bookings
		 WHERE employee_id = $1 AND scheduled_date = $2::date
		   AND status IN ('pending', 'confirmed', 'in_progress')`,
		employeeID, date).Scan(&n)
	require.NoError(t, err)
	return n
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('atlas_schema_revisions')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	_, err := pool.Exec(ctx, sqlAny.(string))
	return err
}
