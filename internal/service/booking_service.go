package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/stayledger/internal/ledger"
	"github.com/mmynk/stayledger/internal/middleware"
	"github.com/mmynk/stayledger/internal/models"
	"github.com/mmynk/stayledger/internal/storage"
)

// BookingService implements the Connect BookingService on top of a ledger.Manager.
type BookingService struct {
	manager *ledger.Manager
	loc     *time.Location
}

// NewBookingService creates a BookingService. Request dates without a zone
// are read in loc.
func NewBookingService(manager *ledger.Manager, loc *time.Location) *BookingService {
	if loc == nil {
		loc = time.Local
	}
	return &BookingService{manager: manager, loc: loc}
}

// CreatePrivateReservation books a direct reservation.
func (s *BookingService) CreatePrivateReservation(ctx context.Context, req *connect.Request[CreatePrivateReservationRequest]) (*connect.Response[BookingResponse], error) {
	slog.Info("CreatePrivateReservation request received",
		"unit_id", req.Msg.UnitID,
		"check_in", req.Msg.CheckIn,
		"check_out", req.Msg.CheckOut,
		"operator", middleware.GetOperator(ctx),
	)

	in, err := req.Msg.input(s.loc)
	if err != nil {
		return nil, toConnectError(err)
	}
	b, err := s.manager.CreatePrivateReservation(ctx, in)
	if err != nil {
		slog.Error("CreatePrivateReservation failed", "unit_id", req.Msg.UnitID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Private reservation created", "booking_id", b.ID, "confirmation_code", b.ConfirmationCode)
	return connect.NewResponse(&BookingResponse{Booking: toBooking(b)}), nil
}

// CreateOwnerStay books an owner stay.
func (s *BookingService) CreateOwnerStay(ctx context.Context, req *connect.Request[CreateOwnerStayRequest]) (*connect.Response[BookingResponse], error) {
	slog.Info("CreateOwnerStay request received",
		"unit_id", req.Msg.UnitID,
		"check_in", req.Msg.CheckIn,
		"check_out", req.Msg.CheckOut,
		"operator", middleware.GetOperator(ctx),
	)

	in, err := req.Msg.input(s.loc)
	if err != nil {
		return nil, toConnectError(err)
	}
	b, err := s.manager.CreateOwnerStay(ctx, in)
	if err != nil {
		slog.Error("CreateOwnerStay failed", "unit_id", req.Msg.UnitID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Owner stay created", "booking_id", b.ID)
	return connect.NewResponse(&BookingResponse{Booking: toBooking(b)}), nil
}

// CreateAirbnbBooking books a manually entered Airbnb reservation.
func (s *BookingService) CreateAirbnbBooking(ctx context.Context, req *connect.Request[CreateAirbnbBookingRequest]) (*connect.Response[BookingResponse], error) {
	slog.Info("CreateAirbnbBooking request received",
		"unit_id", req.Msg.UnitID,
		"confirmation_code", req.Msg.ConfirmationCode,
		"operator", middleware.GetOperator(ctx),
	)

	in, err := req.Msg.input(s.loc)
	if err != nil {
		return nil, toConnectError(err)
	}
	b, err := s.manager.CreateAirbnbBooking(ctx, in)
	if err != nil {
		slog.Error("CreateAirbnbBooking failed", "unit_id", req.Msg.UnitID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Airbnb booking created", "booking_id", b.ID)
	return connect.NewResponse(&BookingResponse{Booking: toBooking(b)}), nil
}

// UpdateBooking edits a booking and recomputes everything derived from it.
func (s *BookingService) UpdateBooking(ctx context.Context, req *connect.Request[UpdateBookingRequest]) (*connect.Response[BookingResponse], error) {
	slog.Info("UpdateBooking request received",
		"booking_id", req.Msg.BookingID,
		"operator", middleware.GetOperator(ctx),
	)

	upd, err := req.Msg.update(s.loc)
	if err != nil {
		return nil, toConnectError(err)
	}
	b, err := s.manager.UpdateBooking(ctx, req.Msg.BookingID, upd)
	if err != nil {
		slog.Error("UpdateBooking failed", "booking_id", req.Msg.BookingID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Booking updated", "booking_id", b.ID, "status", b.Status)
	return connect.NewResponse(&BookingResponse{Booking: toBooking(b)}), nil
}

// CancelBooking cancels a booking, keeping an optional residual payout.
func (s *BookingService) CancelBooking(ctx context.Context, req *connect.Request[CancelBookingRequest]) (*connect.Response[BookingResponse], error) {
	slog.Info("CancelBooking request received",
		"booking_id", req.Msg.BookingID,
		"residual_payout", req.Msg.ResidualPayout,
		"operator", middleware.GetOperator(ctx),
	)

	b, err := s.manager.CancelBooking(ctx, req.Msg.BookingID, req.Msg.ResidualPayout)
	if err != nil {
		slog.Error("CancelBooking failed", "booking_id", req.Msg.BookingID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Booking cancelled", "booking_id", b.ID)
	return connect.NewResponse(&BookingResponse{Booking: toBooking(b)}), nil
}

// GetBooking retrieves a booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, req *connect.Request[BookingRequest]) (*connect.Response[BookingResponse], error) {
	slog.Info("GetBooking request received", "booking_id", req.Msg.BookingID)

	b, err := s.manager.GetBooking(ctx, req.Msg.BookingID)
	if err != nil {
		slog.Error("GetBooking failed", "booking_id", req.Msg.BookingID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&BookingResponse{Booking: toBooking(b)}), nil
}

// RefreshMonthSlices rebuilds the month slices of a booking.
func (s *BookingService) RefreshMonthSlices(ctx context.Context, req *connect.Request[BookingRequest]) (*connect.Response[RefreshMonthSlicesResponse], error) {
	slog.Info("RefreshMonthSlices request received", "booking_id", req.Msg.BookingID)

	n, err := s.manager.RefreshMonthSlices(ctx, req.Msg.BookingID)
	if err != nil {
		slog.Error("RefreshMonthSlices failed", "booking_id", req.Msg.BookingID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Month slices refreshed", "booking_id", req.Msg.BookingID, "written", n)
	return connect.NewResponse(&RefreshMonthSlicesResponse{Written: n}), nil
}

// ListMonthSlices returns the month slices of a booking.
func (s *BookingService) ListMonthSlices(ctx context.Context, req *connect.Request[BookingRequest]) (*connect.Response[ListMonthSlicesResponse], error) {
	slog.Info("ListMonthSlices request received", "booking_id", req.Msg.BookingID)

	slices, err := s.manager.ListMonthSlices(ctx, req.Msg.BookingID)
	if err != nil {
		slog.Error("ListMonthSlices failed", "booking_id", req.Msg.BookingID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&ListMonthSlicesResponse{Slices: toMonthSlices(slices)}), nil
}

// GetMonthMetrics aggregates the slices of one month.
func (s *BookingService) GetMonthMetrics(ctx context.Context, req *connect.Request[MonthMetricsRequest]) (*connect.Response[MonthMetricsResponse], error) {
	slog.Info("GetMonthMetrics request received", "year_month", req.Msg.YearMonth)

	m, err := s.manager.MonthMetrics(ctx, req.Msg.YearMonth)
	if err != nil {
		slog.Error("GetMonthMetrics failed", "year_month", req.Msg.YearMonth, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(toMonthMetrics(m)), nil
}

// GetUnitStatement totals one unit's slices for one month.
func (s *BookingService) GetUnitStatement(ctx context.Context, req *connect.Request[UnitStatementRequest]) (*connect.Response[UnitStatementResponse], error) {
	slog.Info("GetUnitStatement request received", "unit_id", req.Msg.UnitID, "year_month", req.Msg.YearMonth)

	st, err := s.manager.UnitStatement(ctx, req.Msg.UnitID, req.Msg.YearMonth)
	if err != nil {
		slog.Error("GetUnitStatement failed", "unit_id", req.Msg.UnitID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(toUnitStatement(st)), nil
}

// SetCleaningRate stores a housekeeping rate for a unit.
func (s *BookingService) SetCleaningRate(ctx context.Context, req *connect.Request[SetCleaningRateRequest]) (*connect.Response[SetCleaningRateResponse], error) {
	slog.Info("SetCleaningRate request received",
		"unit_id", req.Msg.UnitID,
		"city", req.Msg.City,
		"effective_from", req.Msg.EffectiveFrom,
		"operator", middleware.GetOperator(ctx),
	)

	rate := &models.CleaningRate{
		UnitID:        req.Msg.UnitID,
		City:          req.Msg.City,
		Amount:        req.Msg.Amount,
		EffectiveFrom: req.Msg.EffectiveFrom,
		Notes:         req.Msg.Notes,
	}
	if err := s.manager.SetCleaningRate(ctx, rate); err != nil {
		slog.Error("SetCleaningRate failed", "unit_id", req.Msg.UnitID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&SetCleaningRateResponse{Rate: toCleaningRate(rate)}), nil
}

// SweepStatuses re-derives booking statuses from the current date.
func (s *BookingService) SweepStatuses(ctx context.Context, req *connect.Request[SweepStatusesRequest]) (*connect.Response[SweepStatusesResponse], error) {
	slog.Info("SweepStatuses request received", "operator", middleware.GetOperator(ctx))

	res, err := s.manager.SweepStatuses(ctx)
	if err != nil {
		slog.Error("SweepStatuses failed", "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&SweepStatusesResponse{
		Updated:           res.Updated,
		Done:              res.Done,
		CleaningsCanceled: res.CleaningsCanceled,
	}), nil
}

// SaveUnit creates or replaces a unit profile.
func (s *BookingService) SaveUnit(ctx context.Context, req *connect.Request[SaveUnitRequest]) (*connect.Response[SaveUnitResponse], error) {
	slog.Info("SaveUnit request received", "operator", middleware.GetOperator(ctx))

	unit, err := s.manager.SaveUnit(ctx, req.Msg.Unit.input())
	if err != nil {
		slog.Error("SaveUnit failed", "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&SaveUnitResponse{Unit: toUnit(unit)}), nil
}

// SaveFinancialConfig creates or replaces a financial configuration.
func (s *BookingService) SaveFinancialConfig(ctx context.Context, req *connect.Request[SaveFinancialConfigRequest]) (*connect.Response[SaveFinancialConfigResponse], error) {
	slog.Info("SaveFinancialConfig request received", "operator", middleware.GetOperator(ctx))

	cfg, err := s.manager.SaveFinancialConfig(ctx, req.Msg.Config.input())
	if err != nil {
		slog.Error("SaveFinancialConfig failed", "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&SaveFinancialConfigResponse{Config: toFinancialConfig(cfg)}), nil
}

// toConnectError maps ledger and storage errors to Connect codes.
func toConnectError(err error) error {
	var cfgErr *ledger.ConfigurationError
	var conflict *ledger.ConflictError
	switch {
	case errors.As(err, &cfgErr):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.As(err, &conflict):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, ledger.ErrInvalidInput):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
