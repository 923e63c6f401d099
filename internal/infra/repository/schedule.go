package repository

import (
	"context"
	"log/slog"
	"time"

	"petcare-booking/internal/domain/schedule"
	"petcare-booking/internal/infra"
	"petcare-booking/internal/infra/db"
	"petcare-booking/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	findShiftOverride = `
SELECT id, employee_id, date, is_working, start_minute, end_minute, reason
FROM shift_overrides
WHERE employee_id = $1 AND date = $2`

	listShiftTemplates = `
SELECT id, employee_id, day_of_week, start_minute, end_minute, effective_from, effective_to, is_active
FROM shift_templates
WHERE employee_id = $1 AND day_of_week = $2
ORDER BY effective_from, id`

	listBreakTemplates = `
SELECT id, employee_id, day_of_week, start_minute, end_minute, effective_from, effective_to, is_active
FROM break_templates
WHERE employee_id = $1
ORDER BY start_minute, id`
)

type ScheduleRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewScheduleRepository(dbtx db.DBTX, logger *slog.Logger) *ScheduleRepository {
	return &ScheduleRepository{db: dbtx, logger: logger}
}

func (r *ScheduleRepository) OverrideFor(ctx context.Context, employeeID uuid.UUID, date schedule.Date) (*schedule.ShiftOverride, error) {
	var (
		o          schedule.ShiftOverride
		day        pgtype.Date
		start, end pgtype.Int2
	)
	err := r.db.QueryRow(ctx, findShiftOverride, employeeID, pgconv.DateToPgtype(date.Time())).Scan(
		&o.ID, &o.EmployeeID, &day, &o.IsWorking, &start, &end, &o.Reason,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapPgErr(r.logger, "failed to load shift override", err)
	}
	o.Date = date
	hours, err := intervalFromMinutes(pgconv.IntPtrFromPgtype(start), pgconv.IntPtrFromPgtype(end))
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "corrupt shift override hours", err)
	}
	o.Hours = hours
	return &o, nil
}

func (r *ScheduleRepository) TemplatesFor(ctx context.Context, employeeID uuid.UUID, weekday int) ([]schedule.ShiftTemplate, error) {
	rows, err := r.db.Query(ctx, listShiftTemplates, employeeID, weekday)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to list shift templates", err)
	}
	defer rows.Close()

	var out []schedule.ShiftTemplate
	for rows.Next() {
		row, err := scanRecurring(rows)
		if err != nil {
			return nil, infra.WrapPgErr(r.logger, "failed to scan shift template", err)
		}
		if row.dayOfWeek == nil {
			continue
		}
		out = append(out, schedule.ShiftTemplate{
			ID:            row.id,
			EmployeeID:    row.employeeID,
			DayOfWeek:     *row.dayOfWeek,
			Hours:         row.hours,
			EffectiveFrom: row.effectiveFrom,
			EffectiveTo:   row.effectiveTo,
			IsActive:      row.isActive,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to iterate shift templates", err)
	}
	return out, nil
}

func (r *ScheduleRepository) BreaksFor(ctx context.Context, employeeID uuid.UUID) ([]schedule.BreakTemplate, error) {
	rows, err := r.db.Query(ctx, listBreakTemplates, employeeID)
	if err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to list break templates", err)
	}
	defer rows.Close()

	var out []schedule.BreakTemplate
	for rows.Next() {
		row, err := scanRecurring(rows)
		if err != nil {
			return nil, infra.WrapPgErr(r.logger, "failed to scan break template", err)
		}
		out = append(out, schedule.BreakTemplate{
			ID:            row.id,
			EmployeeID:    row.employeeID,
			DayOfWeek:     row.dayOfWeek,
			Hours:         row.hours,
			EffectiveFrom: row.effectiveFrom,
			EffectiveTo:   row.effectiveTo,
			IsActive:      row.isActive,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapPgErr(r.logger, "failed to iterate break templates", err)
	}
	return out, nil
}

// recurringRow is the column layout shared by shift and break templates.
type recurringRow struct {
	id            uuid.UUID
	employeeID    uuid.UUID
	dayOfWeek     *time.Weekday
	hours         schedule.Interval
	effectiveFrom schedule.Date
	effectiveTo   *schedule.Date
	isActive      bool
}

func scanRecurring(row pgx.Row) (recurringRow, error) {
	var (
		out        recurringRow
		day        pgtype.Int2
		start, end int16
		from, to   pgtype.Date
	)
	if err := row.Scan(&out.id, &out.employeeID, &day, &start, &end, &from, &to, &out.isActive); err != nil {
		return recurringRow{}, err
	}
	if day.Valid {
		wd := time.Weekday(day.Int16)
		out.dayOfWeek = &wd
	}
	if t := pgconv.DatePtrFromPgtype(from); t != nil {
		out.effectiveFrom = schedule.DateFromTime(*t)
	}
	if t := pgconv.DatePtrFromPgtype(to); t != nil {
		d := schedule.DateFromTime(*t)
		out.effectiveTo = &d
	}
	hours, err := schedule.NewInterval(schedule.TimeOfDay(start), schedule.TimeOfDay(end))
	if err != nil {
		return recurringRow{}, err
	}
	out.hours = hours
	return out, nil
}

func intervalFromMinutes(start, end *int) (*schedule.Interval, error) {
	if start == nil || end == nil {
		return nil, nil
	}
	iv, err := schedule.NewInterval(schedule.TimeOfDay(*start), schedule.TimeOfDay(*end))
	if err != nil {
		return nil, err
	}
	return &iv, nil
}
