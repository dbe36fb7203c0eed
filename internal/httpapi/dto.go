package httpapi

import (
	"time"

	"github.com/vladislavdragonenkov/gramseva/internal/cart"
	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

type errorBody struct {
	Error string `json:"error"`
}

func errorResponse(message string) errorBody {
	return errorBody{Error: message}
}

type productDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	InStock     bool   `json:"inStock"`
}

func toProductDTO(p domain.Product) productDTO {
	return productDTO{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Price:       p.Price,
		Icon:        p.Icon,
		Description: p.Description,
		InStock:     p.InStock,
	}
}

type serviceDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type newsDTO struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

type userDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserDTO(u domain.User) userDTO {
	return userDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
		CreatedAt: u.CreatedAt,
	}
}

type authResponse struct {
	User  userDTO `json:"user"`
	Token string  `json:"token"`
}

type cartItemDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	Price          string `json:"price"`
	UnitPriceMinor int64  `json:"unitPriceMinor"`
	Quantity       int    `json:"quantity"`
}

type cartDTO struct {
	Items           []cartItemDTO `json:"items"`
	IsOpen          bool          `json:"isOpen"`
	TotalItems      int           `json:"totalItems"`
	TotalPrice      string        `json:"totalPrice"`
	TotalPriceMinor int64         `json:"totalPriceMinor"`
}

func toCartDTO(snap cart.Snapshot) cartDTO {
	items := make([]cartItemDTO, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, cartItemDTO{
			ID:             item.ID,
			Name:           item.Name,
			Category:       item.Category,
			Price:          item.PriceDisplay,
			UnitPriceMinor: item.UnitPriceMinor,
			Quantity:       item.Quantity,
		})
	}
	return cartDTO{
		Items:           items,
		IsOpen:          snap.IsOpen,
		TotalItems:      snap.TotalItems,
		TotalPrice:      domain.FormatAmountMinor(snap.TotalPriceMinor),
		TotalPriceMinor: snap.TotalPriceMinor,
	}
}

type bookingItemDTO struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
}

type bookingDTO struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	Status      string           `json:"status"`
	Items       []bookingItemDTO `json:"items"`
	TotalAmount string           `json:"totalAmount"`
	AmountMinor int64            `json:"amountMinor"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func toBookingDTO(b domain.Booking) bookingDTO {
	items := make([]bookingItemDTO, 0, len(b.Items))
	for _, item := range b.Items {
		items = append(items, bookingItemDTO{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return bookingDTO{
		ID:          b.ID,
		UserID:      b.UserID,
		Status:      string(b.Status),
		Items:       items,
		TotalAmount: b.TotalAmount,
		AmountMinor: b.AmountMinor,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

type timelineEventDTO struct {
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred"`
}

func toTimelineDTO(events []domain.TimelineEvent) []timelineEventDTO {
	result := make([]timelineEventDTO, 0, len(events))
	for _, event := range events {
		result = append(result, timelineEventDTO{
			Type:     event.Type,
			Reason:   event.Reason,
			Occurred: event.Occurred,
		})
	}
	return result
}

type contactSubmissionDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submittedAt"`
}

func toContactDTO(s domain.ContactSubmission) contactSubmissionDTO {
	return contactSubmissionDTO{
		ID:          s.ID,
		Name:        s.Name,
		Message:     s.Message,
		SubmittedAt: s.SubmittedAt,
	}
}
