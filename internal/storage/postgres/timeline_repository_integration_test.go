package postgres

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

func TestTimelineRepository_PostgresAppendAndList(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	bookingRepo := NewBookingRepository(store)
	timelineRepo := NewTimelineRepository(store)

	createdAt := time.Now().UTC().Add(-time.Minute).Round(time.Microsecond)
	booking := sampleBooking("timeline-booking", "user-timeline", createdAt)
	if err := bookingRepo.Create(booking); err != nil {
		t.Fatalf("create booking for timeline: %v", err)
	}

	appendEvent := func(event domain.TimelineEvent) {
		t.Helper()
		event.BookingID = booking.ID
		if err := timelineRepo.Append(event); err != nil {
			t.Fatalf("append timeline event %q: %v", event.Type, err)
		}
	}

	// Событие с нулевым occurred получает текущий момент и потому
	// оказывается позже явно датированной отмены из прошлого.
	appendEvent(domain.TimelineEvent{
		Type:   "BookingStatusChanged",
		Reason: "created",
	})
	appendEvent(domain.TimelineEvent{
		Type:     "BookingCancelled",
		Reason:   "customer request",
		Occurred: createdAt.Add(10 * time.Second),
	})

	events, err := timelineRepo.List(booking.ID)
	if err != nil {
		t.Fatalf("list timeline events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 timeline events, got %d", len(events))
	}
	if events[0].Occurred.After(events[1].Occurred) {
		t.Fatalf("events should be sorted by occurred asc: %+v", events)
	}
	if events[0].Type != "BookingCancelled" || events[1].Type != "BookingStatusChanged" {
		t.Fatalf("unexpected event order: %q, %q", events[0].Type, events[1].Type)
	}
	if events[1].Occurred.IsZero() {
		t.Fatal("zero occurred should be auto-filled on append")
	}
}

func TestTimelineRepository_PostgresMissingBooking(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	timelineRepo := NewTimelineRepository(store)

	err := timelineRepo.Append(domain.TimelineEvent{
		BookingID: "missing-booking",
		Type:      "BookingStatusChanged",
		Reason:    "test",
	})
	if err == nil {
		t.Fatal("expected append error for missing booking due FK constraint")
	}

	events, err := timelineRepo.List("missing-booking")
	if err != nil {
		t.Fatalf("list for missing booking should not fail: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events for missing booking, got %d", len(events))
	}
}
