package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-parking-reservation/internal/middleware"
	"github.com/iliyamo/cinema-parking-reservation/internal/model"
	"github.com/iliyamo/cinema-parking-reservation/internal/service"
)

// ParkingHandler exposes the parking workflow over HTTP.  Every method
// except ListLots runs behind JWTAuth and acts on behalf of the caller.
type ParkingHandler struct {
	Service    *service.ParkingService
	RetryAfter time.Duration // advertised on 429, the hold limiter window
	Log        zerolog.Logger
}

// NewParkingHandler constructs a ParkingHandler.  svc must be non-nil.
func NewParkingHandler(svc *service.ParkingService, retryAfter time.Duration, log zerolog.Logger) *ParkingHandler {
	if svc == nil {
		panic("nil service passed to NewParkingHandler")
	}
	if retryAfter <= 0 {
		retryAfter = time.Minute
	}
	return &ParkingHandler{Service: svc, RetryAfter: retryAfter, Log: log.With().Str("component", "handler").Logger()}
}

type holdRequest struct {
	BookingID uint64 `json:"bookingId"`
	LotID     uint64 `json:"lotId"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type holdResponse struct {
	ReservationID string    `json:"reservationId"`
	LotName       string    `json:"lotName"`
	Location      string    `json:"location"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	Price         int64     `json:"price"`
	HoldExpiresAt time.Time `json:"holdExpiresAt"`
}

type confirmRequest struct {
	BookingID *uint64 `json:"bookingId"`
}

type reservationView struct {
	ID            string     `json:"id"`
	BookingID     uint64     `json:"bookingId"`
	LotID         uint64     `json:"lotId"`
	LotName       string     `json:"lotName"`
	Location      string     `json:"location"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       time.Time  `json:"endTime"`
	Status        string     `json:"status"`
	Price         int64      `json:"price"`
	HoldExpiresAt *time.Time `json:"holdExpiresAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func toView(r model.ParkingReservation) reservationView {
	v := reservationView{
		ID:        r.ID,
		BookingID: r.BookingID,
		LotID:     r.LotID,
		LotName:   r.LotName,
		Location:  r.Location,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Status:    string(r.Status),
		Price:     r.PriceCents,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Status == model.StatusHeld {
		exp := r.HoldExpiresAt
		v.HoldExpiresAt = &exp
	}
	return v
}

// ListLots handles GET /v1/parking/lots?cinemaId=&showtime=.  showtime is
// required (RFC 3339); availability is computed for the window from 30
// minutes before to 3 hours after it.
func (h *ParkingHandler) ListLots(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam("showtime"))
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showtime is required"})
	}
	showtime, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showtime must be an RFC 3339 timestamp"})
	}
	var cinemaID *uint64
	if v := strings.TrimSpace(c.QueryParam("cinemaId")); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid cinemaId"})
		}
		cinemaID = &id
	}

	lots, err := h.Service.ListAvailability(c.Request().Context(), cinemaID, service.WindowAroundShowtime(showtime.UTC()))
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, lots)
}

// CreateHold handles POST /v1/parking/reservations/hold.
func (h *ParkingHandler) CreateHold(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body holdRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, err := parseOptionalTime(body.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "startTime must be an RFC 3339 timestamp"})
	}
	end, err := parseOptionalTime(body.EndTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "endTime must be an RFC 3339 timestamp"})
	}

	res, err := h.Service.CreateHold(c.Request().Context(), service.CreateHoldInput{
		BookingID: body.BookingID,
		LotID:     body.LotID,
		Start:     start,
		End:       end,
		CallerID:  userID,
	})
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, holdResponse{
		ReservationID: res.ID,
		LotName:       res.LotName,
		Location:      res.Location,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		Price:         res.PriceCents,
		HoldExpiresAt: res.HoldExpiresAt,
	})
}

// ConfirmHold handles PUT /v1/parking/reservations/:id/confirm.  The body
// may carry the bookingId the client believes the hold belongs to.
func (h *ParkingHandler) ConfirmHold(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body confirmRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		}
	}
	if err := h.Service.Confirm(c.Request().Context(), c.Param("id"), userID, body.BookingID); err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "parking reservation confirmed", "status": model.StatusConfirmed})
}

// ReleaseHold handles DELETE /v1/parking/reservations/:id.  Holds become
// released, confirmed reservations become cancelled.
func (h *ParkingHandler) ReleaseHold(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	status, err := h.Service.Release(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	msg := "parking hold released"
	if status == model.StatusCancelled {
		msg = "parking reservation cancelled"
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg, "status": status})
}

// GetReservation handles GET /v1/parking/reservations/:id.
func (h *ParkingHandler) GetReservation(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	res, err := h.Service.GetReservation(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toView(*res))
}

// ListMyReservations handles GET /v1/parking/my-reservations.
func (h *ParkingHandler) ListMyReservations(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Service.ListReservations(c.Request().Context(), userID)
	if err != nil {
		return h.writeServiceError(c, err)
	}
	out := make([]reservationView, 0, len(list))
	for _, r := range list {
		out = append(out, toView(r))
	}
	return c.JSON(http.StatusOK, out)
}

// writeServiceError maps the service taxonomy onto HTTP statuses.
// Infrastructure failures are logged and hidden behind a generic 500.
func (h *ParkingHandler) writeServiceError(c echo.Context, err error) error {
	var status int
	switch service.KindOf(err) {
	case service.ErrInvalidArgument:
		status = http.StatusBadRequest
	case service.ErrNotFound:
		status = http.StatusNotFound
	case service.ErrConflict:
		status = http.StatusConflict
	case service.ErrRateLimited:
		status = http.StatusTooManyRequests
		c.Response().Header().Set("Retry-After", strconv.Itoa(int(h.RetryAfter.Seconds())))
	case service.ErrGone:
		status = http.StatusGone
	default:
		h.Log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
	msg := err.Error()
	var se *service.Error
	if errors.As(err, &se) {
		msg = se.Msg
	}
	return c.JSON(status, echo.Map{"error": msg})
}

func parseOptionalTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
