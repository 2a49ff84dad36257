package dashboard

import (
	"time"

	"github.com/google/uuid"
)

// ClientRisk is the status of one visible client and the risk flags of its
// latest day, if it has any.
type ClientRisk struct {
	Active   bool
	HasStats bool
	Flags    []string
}

// RiskShares are percentages of visible clients, rounded to integers.
type RiskShares struct {
	OK         int `json:"ok"`
	ProteinLow int `json:"proteinLow"`
	FiberLow   int `json:"fiberLow"`
	OverKcal   int `json:"overKcal"`
}

type EventItem struct {
	ID          uuid.UUID  `json:"id"`
	ClientID    *uuid.UUID `json:"clientId"`
	Title       string     `json:"title"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	Channel     *string    `json:"channel"`
	Type        string     `json:"type"`
}

type MenuStats struct {
	ClientsWithActiveMenu int `json:"clientsWithActiveMenu"`
}

type LabStats struct {
	LowRiskClients int `json:"lowRiskClients"`
}

type Summary struct {
	TotalClients        int         `json:"totalClients"`
	ActiveClients       int         `json:"activeClients"`
	Risks               RiskShares  `json:"risks"`
	EventsUpcomingCount int         `json:"eventsUpcomingCount"`
	Events              []EventItem `json:"events"`
	Menu                MenuStats   `json:"menu"`
	Labs                LabStats    `json:"labs"`
}
