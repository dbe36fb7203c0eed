package domain_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

func validBooking() domain.Booking {
	now := time.Now().UTC()
	return domain.Booking{
		ID:     "booking-1",
		UserID: "user-1",
		Status: domain.BookingStatusPending,
		Items: []domain.BookingItem{
			{ProductID: "1", Quantity: 2},
			{ProductID: "2", Quantity: 1},
		},
		AmountMinor: 12500,
		TotalAmount: "₹125.00",
		Version:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestBookingValidateInvariantsOK(t *testing.T) {
	booking := validBooking()
	if errs := booking.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no invariant errors, got %v", errs)
	}
}

func TestBookingValidateInvariantsViolations(t *testing.T) {
	booking := validBooking()
	booking.UserID = ""
	booking.Items = nil
	booking.AmountMinor = -1
	booking.TotalAmount = ""

	errs := booking.ValidateInvariants()
	if len(errs) != 3 {
		t.Fatalf("expected 3 invariant errors, got %d: %v", len(errs), errs)
	}
}

func TestBookingValidateInvariantsAmountMismatch(t *testing.T) {
	booking := validBooking()
	booking.TotalAmount = "₹999.00"

	errs := booking.ValidateInvariants()
	if len(errs) != 1 || errs[0] != domain.ErrAmountMismatch {
		t.Fatalf("expected amount mismatch, got %v", errs)
	}
}

func TestBookingValidateInvariantsBadQty(t *testing.T) {
	booking := validBooking()
	booking.Items[0].Quantity = 0

	errs := booking.ValidateInvariants()
	found := false
	for _, err := range errs {
		if err == domain.ErrItemQtyInvalid {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected qty invariant error, got %v", errs)
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to domain.BookingStatus }{
		{domain.BookingStatusPending, domain.BookingStatusConfirmed},
		{domain.BookingStatusConfirmed, domain.BookingStatusInTransit},
		{domain.BookingStatusInTransit, domain.BookingStatusDelivered},
		{domain.BookingStatusPending, domain.BookingStatusCancelled},
		{domain.BookingStatusConfirmed, domain.BookingStatusCancelled},
		{domain.BookingStatusInTransit, domain.BookingStatusCancelled},
	}
	for _, tc := range allowed {
		if !domain.CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to domain.BookingStatus }{
		{domain.BookingStatusDelivered, domain.BookingStatusCancelled},
		{domain.BookingStatusCancelled, domain.BookingStatusConfirmed},
		{domain.BookingStatusPending, domain.BookingStatusDelivered},
		{domain.BookingStatusDelivered, domain.BookingStatusPending},
	}
	for _, tc := range denied {
		if domain.CanTransition(tc.from, tc.to) {
			t.Fatalf("expected transition %s -> %s to be denied", tc.from, tc.to)
		}
	}
}

func TestBookingStatusValid(t *testing.T) {
	if !domain.BookingStatusInTransit.Valid() {
		t.Fatal("in_transit should be valid")
	}
	if domain.BookingStatus("shipped").Valid() {
		t.Fatal("unknown status should be invalid")
	}
}
