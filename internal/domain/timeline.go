package domain

import "time"

// TimelineEvent описывает событие в жизненном цикле заявки.
type TimelineEvent struct {
	BookingID string
	Type      string
	Reason    string
	Occurred  time.Time
}
