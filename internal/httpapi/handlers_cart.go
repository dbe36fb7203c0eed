package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/gramseva/internal/checkout"
	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

func (s *Server) handleCartGet(c *gin.Context) {
	store := s.carts.Get(sessionID(c))
	c.JSON(http.StatusOK, toCartDTO(store.Snapshot()))
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

func (s *Server) handleCartAddItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("productId is required"))
		return
	}

	product, err := s.catalog.Product(req.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, errorResponse(domain.ErrProductNotFound.Error()))
		return
	}

	store := s.carts.Get(sessionID(c))
	if err := store.AddItem(product); err != nil {
		switch {
		case errors.Is(err, domain.ErrProductOutOfStock):
			c.JSON(http.StatusConflict, errorResponse(err.Error()))
		case errors.Is(err, domain.ErrPriceUnparsable):
			c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, errorResponse("failed to add item"))
		}
		return
	}

	s.recordCartOperation("add")
	c.JSON(http.StatusOK, toCartDTO(store.Snapshot()))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) handleCartUpdateQuantity(c *gin.Context) {
	var req updateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid request body"))
		return
	}

	store := s.carts.Get(sessionID(c))
	store.UpdateQuantity(c.Param("id"), req.Quantity)

	s.recordCartOperation("update_quantity")
	c.JSON(http.StatusOK, toCartDTO(store.Snapshot()))
}

func (s *Server) handleCartRemoveItem(c *gin.Context) {
	store := s.carts.Get(sessionID(c))
	store.RemoveItem(c.Param("id"))

	s.recordCartOperation("remove")
	c.JSON(http.StatusOK, toCartDTO(store.Snapshot()))
}

func (s *Server) handleCartClear(c *gin.Context) {
	store := s.carts.Get(sessionID(c))
	store.Clear()

	s.recordCartOperation("clear")
	c.JSON(http.StatusOK, toCartDTO(store.Snapshot()))
}

func (s *Server) handleCartOpen(c *gin.Context) {
	store := s.carts.Get(sessionID(c))
	store.Open()
	c.JSON(http.StatusOK, toCartDTO(store.Snapshot()))
}

func (s *Server) handleCartClose(c *gin.Context) {
	store := s.carts.Get(sessionID(c))
	store.Close()
	c.JSON(http.StatusOK, toCartDTO(store.Snapshot()))
}

// handleCheckout прогоняет состояние корзины через координатор оформления.
// Координатор переживает запрос, поэтому повторный POST во время отправки
// получает 409.
func (s *Server) handleCheckout(c *gin.Context) {
	state := s.sessionCheckout(sessionID(c))
	state.creds.set(bearerToken(c))

	result, err := state.coordinator.Checkout(c.Request.Context())
	switch {
	case errors.Is(err, checkout.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":      err.Error(),
			"redirectTo": result.RedirectTo,
		})
	case errors.Is(err, checkout.ErrCheckoutInFlight):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, checkout.ErrCartEmpty):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, domain.ErrTokenInvalid):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":      domain.ErrTokenInvalid.Error(),
			"redirectTo": s.loginPath,
		})
	case err != nil:
		c.JSON(http.StatusBadGateway, errorResponse("booking submission failed"))
	default:
		c.JSON(http.StatusOK, gin.H{"booking": toBookingDTO(result.Booking)})
	}
}

func (s *Server) recordCartOperation(op string) {
	if s.checkoutMetrics != nil {
		s.checkoutMetrics.RecordCartOperation(op)
	}
}
