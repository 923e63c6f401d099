package components

import (
	"log/slog"

	"petcare-booking/internal/infra/metrics"
	"petcare-booking/internal/pkg/clock"
	"petcare-booking/internal/pkg/config"
	"petcare-booking/internal/usecase"
	"petcare-booking/internal/usecase/commands"
	"petcare-booking/internal/usecase/queries"
	"petcare-booking/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	queries.NewAvailabilityCalculator,
	fx.Annotate(
		metrics.NewBookingMetrics,
		fx.As(fx.Self()),
		fx.As(new(shared.BookingMetrics)),
	),
	NewBookingSettings,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		NewBookingCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewAvailabilityQueries,
		queries.NewBookingQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)

func NewBookingSettings(cfg config.Config) commands.BookingSettings {
	b := cfg.Business
	return commands.BookingSettings{
		Location:                b.Location(),
		CancellationLeadTime:    b.CancellationLeadTime,
		RescheduleLeadTime:      b.RescheduleLeadTime,
		NoShowWindowDays:        b.NoShowWindowDays,
		NoShowLimit:             b.NoShowLimit,
		MaxAssignmentCandidates: b.MaxAssignmentCandidates,
	}
}

type bookingCommandParams struct {
	fx.In

	UoW      shared.UnitOfWork
	Calc     *queries.AvailabilityCalculator
	Settings commands.BookingSettings
	Clock    clock.Clock
	Sink     shared.NotificationSink
	Cache    shared.SlotCache
	Metrics  shared.BookingMetrics
	Logger   *slog.Logger
}

func NewBookingCommands(p bookingCommandParams) commands.BookingCommands {
	return commands.NewBookingCommands(commands.BookingCommandDeps{
		UoW:      p.UoW,
		Calc:     p.Calc,
		Settings: p.Settings,
		Clock:    p.Clock,
		Sink:     p.Sink,
		Cache:    p.Cache,
		Metrics:  p.Metrics,
		Logger:   p.Logger,
	})
}
