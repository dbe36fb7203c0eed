package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

const bookingListLimit = 100

type createBookingRequest struct {
	Items       []bookingItemDTO `json:"items"`
	TotalAmount string           `json:"totalAmount"`
	AmountMinor int64            `json:"amountMinor"`
}

func (s *Server) handleBookingCreate(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("authorization token is required"))
		return
	}

	var req createBookingRequest
	body, err := readBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}
	if err := bindJSON(body, &req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	s.withIdempotency(c, "CreateBooking", body, func() (int, any) {
		items := make([]domain.BookingItem, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, domain.BookingItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		booking, err := s.bookings.Create(c.Request.Context(), user.ID, domain.BookingRequest{
			Items:       items,
			TotalAmount: req.TotalAmount,
			AmountMinor: req.AmountMinor,
		})
		if err != nil {
			return bookingErrorStatus(err), errorResponse(err.Error())
		}
		return http.StatusCreated, gin.H{"booking": toBookingDTO(booking)}
	})
}

func (s *Server) handleBookingList(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("authorization token is required"))
		return
	}

	bookings, err := s.bookings.ListByUser(c.Request.Context(), user.ID, bookingListLimit)
	if err != nil {
		s.logger.WithError(err).Error("failed to list bookings")
		c.JSON(http.StatusInternalServerError, errorResponse("failed to list bookings"))
		return
	}

	result := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		result = append(result, toBookingDTO(booking))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": result})
}

func (s *Server) handleBookingGet(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("authorization token is required"))
		return
	}

	booking, timeline, err := s.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse(domain.ErrBookingNotFound.Error()))
		return
	}
	// Чужая заявка неотличима от несуществующей.
	if booking.UserID != user.ID {
		c.JSON(http.StatusNotFound, errorResponse(domain.ErrBookingNotFound.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"booking":  toBookingDTO(booking),
		"timeline": toTimelineDTO(timeline),
	})
}

func bookingErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProductOutOfStock),
		errors.Is(err, domain.ErrItemsRequired),
		errors.Is(err, domain.ErrItemQtyInvalid),
		errors.Is(err, domain.ErrAmountMismatch),
		errors.Is(err, domain.ErrAmountNegative),
		errors.Is(err, domain.ErrUserIDRequired),
		errors.Is(err, domain.ErrPriceUnparsable):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
