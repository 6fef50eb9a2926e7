package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// BookingServiceName is the fully-qualified name of the booking service.
const BookingServiceName = "stayledger.v1.BookingService"

// Procedure paths of BookingService.
const (
	CreatePrivateReservationProcedure = "/stayledger.v1.BookingService/CreatePrivateReservation"
	CreateOwnerStayProcedure          = "/stayledger.v1.BookingService/CreateOwnerStay"
	CreateAirbnbBookingProcedure      = "/stayledger.v1.BookingService/CreateAirbnbBooking"
	UpdateBookingProcedure            = "/stayledger.v1.BookingService/UpdateBooking"
	CancelBookingProcedure            = "/stayledger.v1.BookingService/CancelBooking"
	GetBookingProcedure               = "/stayledger.v1.BookingService/GetBooking"
	RefreshMonthSlicesProcedure       = "/stayledger.v1.BookingService/RefreshMonthSlices"
	ListMonthSlicesProcedure          = "/stayledger.v1.BookingService/ListMonthSlices"
	GetMonthMetricsProcedure          = "/stayledger.v1.BookingService/GetMonthMetrics"
	GetUnitStatementProcedure         = "/stayledger.v1.BookingService/GetUnitStatement"
	SetCleaningRateProcedure          = "/stayledger.v1.BookingService/SetCleaningRate"
	SweepStatusesProcedure            = "/stayledger.v1.BookingService/SweepStatuses"
	SaveUnitProcedure                 = "/stayledger.v1.BookingService/SaveUnit"
	SaveFinancialConfigProcedure      = "/stayledger.v1.BookingService/SaveFinancialConfig"
)

// NewBookingServiceHandler builds an HTTP handler for every BookingService
// procedure. It returns the path prefix to mount the handler on.
func NewBookingServiceHandler(svc *BookingService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(CreatePrivateReservationProcedure, connect.NewUnaryHandler(CreatePrivateReservationProcedure, svc.CreatePrivateReservation, opts...))
	mux.Handle(CreateOwnerStayProcedure, connect.NewUnaryHandler(CreateOwnerStayProcedure, svc.CreateOwnerStay, opts...))
	mux.Handle(CreateAirbnbBookingProcedure, connect.NewUnaryHandler(CreateAirbnbBookingProcedure, svc.CreateAirbnbBooking, opts...))
	mux.Handle(UpdateBookingProcedure, connect.NewUnaryHandler(UpdateBookingProcedure, svc.UpdateBooking, opts...))
	mux.Handle(CancelBookingProcedure, connect.NewUnaryHandler(CancelBookingProcedure, svc.CancelBooking, opts...))
	mux.Handle(GetBookingProcedure, connect.NewUnaryHandler(GetBookingProcedure, svc.GetBooking, opts...))
	mux.Handle(RefreshMonthSlicesProcedure, connect.NewUnaryHandler(RefreshMonthSlicesProcedure, svc.RefreshMonthSlices, opts...))
	mux.Handle(ListMonthSlicesProcedure, connect.NewUnaryHandler(ListMonthSlicesProcedure, svc.ListMonthSlices, opts...))
	mux.Handle(GetMonthMetricsProcedure, connect.NewUnaryHandler(GetMonthMetricsProcedure, svc.GetMonthMetrics, opts...))
	mux.Handle(GetUnitStatementProcedure, connect.NewUnaryHandler(GetUnitStatementProcedure, svc.GetUnitStatement, opts...))
	mux.Handle(SetCleaningRateProcedure, connect.NewUnaryHandler(SetCleaningRateProcedure, svc.SetCleaningRate, opts...))
	mux.Handle(SweepStatusesProcedure, connect.NewUnaryHandler(SweepStatusesProcedure, svc.SweepStatuses, opts...))
	mux.Handle(SaveUnitProcedure, connect.NewUnaryHandler(SaveUnitProcedure, svc.SaveUnit, opts...))
	mux.Handle(SaveFinancialConfigProcedure, connect.NewUnaryHandler(SaveFinancialConfigProcedure, svc.SaveFinancialConfig, opts...))

	return "/" + BookingServiceName + "/", mux
}

// BookingServiceClient calls a remote BookingService.
type BookingServiceClient struct {
	createPrivateReservation *connect.Client[CreatePrivateReservationRequest, BookingResponse]
	createOwnerStay          *connect.Client[CreateOwnerStayRequest, BookingResponse]
	createAirbnbBooking      *connect.Client[CreateAirbnbBookingRequest, BookingResponse]
	updateBooking            *connect.Client[UpdateBookingRequest, BookingResponse]
	cancelBooking            *connect.Client[CancelBookingRequest, BookingResponse]
	getBooking               *connect.Client[BookingRequest, BookingResponse]
	refreshMonthSlices       *connect.Client[BookingRequest, RefreshMonthSlicesResponse]
	listMonthSlices          *connect.Client[BookingRequest, ListMonthSlicesResponse]
	getMonthMetrics          *connect.Client[MonthMetricsRequest, MonthMetricsResponse]
	getUnitStatement         *connect.Client[UnitStatementRequest, UnitStatementResponse]
	setCleaningRate          *connect.Client[SetCleaningRateRequest, SetCleaningRateResponse]
	sweepStatuses            *connect.Client[SweepStatusesRequest, SweepStatusesResponse]
	saveUnit                 *connect.Client[SaveUnitRequest, SaveUnitResponse]
	saveFinancialConfig      *connect.Client[SaveFinancialConfigRequest, SaveFinancialConfigResponse]
}

// NewBookingServiceClient creates a client for the service at baseURL, for
// example http://localhost:8080.
func NewBookingServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BookingServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return &BookingServiceClient{
		createPrivateReservation: connect.NewClient[CreatePrivateReservationRequest, BookingResponse](httpClient, baseURL+CreatePrivateReservationProcedure, opts...),
		createOwnerStay:          connect.NewClient[CreateOwnerStayRequest, BookingResponse](httpClient, baseURL+CreateOwnerStayProcedure, opts...),
		createAirbnbBooking:      connect.NewClient[CreateAirbnbBookingRequest, BookingResponse](httpClient, baseURL+CreateAirbnbBookingProcedure, opts...),
		updateBooking:            connect.NewClient[UpdateBookingRequest, BookingResponse](httpClient, baseURL+UpdateBookingProcedure, opts...),
		cancelBooking:            connect.NewClient[CancelBookingRequest, BookingResponse](httpClient, baseURL+CancelBookingProcedure, opts...),
		getBooking:               connect.NewClient[BookingRequest, BookingResponse](httpClient, baseURL+GetBookingProcedure, opts...),
		refreshMonthSlices:       connect.NewClient[BookingRequest, RefreshMonthSlicesResponse](httpClient, baseURL+RefreshMonthSlicesProcedure, opts...),
		listMonthSlices:          connect.NewClient[BookingRequest, ListMonthSlicesResponse](httpClient, baseURL+ListMonthSlicesProcedure, opts...),
		getMonthMetrics:          connect.NewClient[MonthMetricsRequest, MonthMetricsResponse](httpClient, baseURL+GetMonthMetricsProcedure, opts...),
		getUnitStatement:         connect.NewClient[UnitStatementRequest, UnitStatementResponse](httpClient, baseURL+GetUnitStatementProcedure, opts...),
		setCleaningRate:          connect.NewClient[SetCleaningRateRequest, SetCleaningRateResponse](httpClient, baseURL+SetCleaningRateProcedure, opts...),
		sweepStatuses:            connect.NewClient[SweepStatusesRequest, SweepStatusesResponse](httpClient, baseURL+SweepStatusesProcedure, opts...),
		saveUnit:                 connect.NewClient[SaveUnitRequest, SaveUnitResponse](httpClient, baseURL+SaveUnitProcedure, opts...),
		saveFinancialConfig:      connect.NewClient[SaveFinancialConfigRequest, SaveFinancialConfigResponse](httpClient, baseURL+SaveFinancialConfigProcedure, opts...),
	}
}

func (c *BookingServiceClient) CreatePrivateReservation(ctx context.Context, req *connect.Request[CreatePrivateReservationRequest]) (*connect.Response[BookingResponse], error) {
	return c.createPrivateReservation.CallUnary(ctx, req)
}

func (c *BookingServiceClient) CreateOwnerStay(ctx context.Context, req *connect.Request[CreateOwnerStayRequest]) (*connect.Response[BookingResponse], error) {
	return c.createOwnerStay.CallUnary(ctx, req)
}

func (c *BookingServiceClient) CreateAirbnbBooking(ctx context.Context, req *connect.Request[CreateAirbnbBookingRequest]) (*connect.Response[BookingResponse], error) {
	return c.createAirbnbBooking.CallUnary(ctx, req)
}

func (c *BookingServiceClient) UpdateBooking(ctx context.Context, req *connect.Request[UpdateBookingRequest]) (*connect.Response[BookingResponse], error) {
	return c.updateBooking.CallUnary(ctx, req)
}

func (c *BookingServiceClient) CancelBooking(ctx context.Context, req *connect.Request[CancelBookingRequest]) (*connect.Response[BookingResponse], error) {
	return c.cancelBooking.CallUnary(ctx, req)
}

func (c *BookingServiceClient) GetBooking(ctx context.Context, req *connect.Request[BookingRequest]) (*connect.Response[BookingResponse], error) {
	return c.getBooking.CallUnary(ctx, req)
}

func (c *BookingServiceClient) RefreshMonthSlices(ctx context.Context, req *connect.Request[BookingRequest]) (*connect.Response[RefreshMonthSlicesResponse], error) {
	return c.refreshMonthSlices.CallUnary(ctx, req)
}

func (c *BookingServiceClient) ListMonthSlices(ctx context.Context, req *connect.Request[BookingRequest]) (*connect.Response[ListMonthSlicesResponse], error) {
	return c.listMonthSlices.CallUnary(ctx, req)
}

func (c *BookingServiceClient) GetMonthMetrics(ctx context.Context, req *connect.Request[MonthMetricsRequest]) (*connect.Response[MonthMetricsResponse], error) {
	return c.getMonthMetrics.CallUnary(ctx, req)
}

func (c *BookingServiceClient) GetUnitStatement(ctx context.Context, req *connect.Request[UnitStatementRequest]) (*connect.Response[UnitStatementResponse], error) {
	return c.getUnitStatement.CallUnary(ctx, req)
}

func (c *BookingServiceClient) SetCleaningRate(ctx context.Context, req *connect.Request[SetCleaningRateRequest]) (*connect.Response[SetCleaningRateResponse], error) {
	return c.setCleaningRate.CallUnary(ctx, req)
}

func (c *BookingServiceClient) SweepStatuses(ctx context.Context, req *connect.Request[SweepStatusesRequest]) (*connect.Response[SweepStatusesResponse], error) {
	return c.sweepStatuses.CallUnary(ctx, req)
}

func (c *BookingServiceClient) SaveUnit(ctx context.Context, req *connect.Request[SaveUnitRequest]) (*connect.Response[SaveUnitResponse], error) {
	return c.saveUnit.CallUnary(ctx, req)
}

func (c *BookingServiceClient) SaveFinancialConfig(ctx context.Context, req *connect.Request[SaveFinancialConfigRequest]) (*connect.Response[SaveFinancialConfigResponse], error) {
	return c.saveFinancialConfig.CallUnary(ctx, req)
}
