package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is a scheduled touchpoint. Events without a client are shared by
// every coach.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	ClientID    *uuid.UUID `json:"clientId"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Type        string     `json:"type"`
	Channel     *string    `json:"channel"`
	ScheduledAt time.Time  `json:"scheduledAt"`
}

type CreateRequest struct {
	Title       string  `json:"title"`
	ScheduledAt string  `json:"scheduledAt"`
	Type        string  `json:"type"`
	Channel     *string `json:"channel"`
	Description *string `json:"description"`
}
