package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/Domenick1991/flightreserve/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	FlightInstanceID int64    `json:"flight_instance_id" binding:"required"`
	SeatNumbers      []string `json:"seat_numbers" binding:"required"`
}

type rescheduleRequest struct {
	NewFlightInstanceID   int64 `json:"new_flight_instance_id" binding:"required"`
	AdditionalAmountMinor int64 `json:"additional_amount_minor"`
}

type bookingResponse struct {
	ID                 int64    `json:"booking_id"`
	PNR                string   `json:"pnr"`
	UserID             int64    `json:"user_id"`
	FlightInstanceID   int64    `json:"flight_instance_id"`
	SeatNumbers        []string `json:"seat_numbers"`
	Status             string   `json:"status"`
	BookingDate        string   `json:"booking_date"`
	CancelledAt        string   `json:"cancelled_at,omitempty"`
	ScheduledDeparture string   `json:"scheduled_departure"`
	ScheduledArrival   string   `json:"scheduled_arrival"`
	RescheduledFrom    *int64   `json:"rescheduled_from,omitempty"`
}

type rescheduleResponse struct {
	Message    string          `json:"message"`
	Original   bookingResponse `json:"original_booking"`
	NewBooking bookingResponse `json:"new_booking"`
	Payment    *domain.Payment `json:"payment,omitempty"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.listMine)
	router.GET("/:id", h.get)
	router.PUT("/:id/cancel", h.cancel)
	router.GET("/:id/reschedule/search", h.searchReschedule)
	router.POST("/:id/reschedule", h.reschedule)
}

// RegisterAdmin mounts routes that must sit behind RequireRole(auth.RoleAdmin).
func (h *BookingHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.GET("/bookings", h.listAll)
}

func (h *BookingHandler) create(c *gin.Context) {
	principal, _ := principalFrom(c)

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		UserID:           principal.UserID,
		FlightInstanceID: req.FlightInstanceID,
		SeatNumbers:      req.SeatNumbers,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) listMine(c *gin.Context) {
	principal, _ := principalFrom(c)

	bookings, err := h.service.ListUserBookings(c.Request.Context(), principal.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponses(bookings))
}

func (h *BookingHandler) get(c *gin.Context) {
	b, ok := h.ownedBooking(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	b, ok := h.ownedBooking(c)
	if !ok {
		return
	}

	cancelled, err := h.service.CancelBooking(c.Request.Context(), b.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(cancelled))
}

func (h *BookingHandler) searchReschedule(c *gin.Context) {
	b, ok := h.ownedBooking(c)
	if !ok {
		return
	}
	date := c.Query("date")
	if date == "" {
		badRequest(c, "date query parameter is required")
		return
	}

	candidates, err := h.service.SearchRescheduleCandidates(c.Request.Context(), b.ID, date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, candidates)
}

func (h *BookingHandler) reschedule(c *gin.Context) {
	b, ok := h.ownedBooking(c)
	if !ok {
		return
	}

	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.service.RescheduleBooking(c.Request.Context(), booking.RescheduleInput{
		BookingID:              b.ID,
		TargetFlightInstanceID: req.NewFlightInstanceID,
		FareDeltaMinor:         req.AdditionalAmountMinor,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rescheduleResponse{
		Message:    "Flight rescheduled successfully",
		Original:   toBookingResponse(result.Original),
		NewBooking: toBookingResponse(result.Booking),
		Payment:    result.Payment,
	})
}

func (h *BookingHandler) listAll(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		badRequest(c, "invalid limit")
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		badRequest(c, "invalid offset")
		return
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponses(bookings))
}

// ownedBooking loads the booking named in the path and checks that the caller
// owns it or is an admin. It writes the response itself on failure.
func (h *BookingHandler) ownedBooking(c *gin.Context) (*domain.Booking, bool) {
	id, ok := pathID(c)
	if !ok {
		return nil, false
	}

	b, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}

	principal, _ := principalFrom(c)
	if b.UserID != principal.UserID && !principal.IsAdmin() {
		c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "forbidden"})
		return nil, false
	}
	return b, true
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:                 b.ID,
		PNR:                b.PNR,
		UserID:             b.UserID,
		FlightInstanceID:   b.FlightInstanceID,
		SeatNumbers:        b.Seats.Labels(),
		Status:             string(b.Status),
		BookingDate:        b.BookedAt.Format(time.RFC3339),
		ScheduledDeparture: b.ScheduledDeparture.Format(time.RFC3339),
		ScheduledArrival:   b.ScheduledArrival.Format(time.RFC3339),
		RescheduledFrom:    b.RescheduledFrom,
	}
	if b.CancelledAt != nil {
		resp.CancelledAt = b.CancelledAt.Format(time.RFC3339)
	}
	return resp
}

func toBookingResponses(bookings []domain.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	return out
}
