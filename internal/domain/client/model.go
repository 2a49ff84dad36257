package client

import (
	"time"

	"github.com/google/uuid"

	"github.com/nutriflow/nutriflow/internal/domain/event"
	"github.com/nutriflow/nutriflow/internal/domain/lab"
	"github.com/nutriflow/nutriflow/internal/domain/menu"
	"github.com/nutriflow/nutriflow/internal/platform/auth"
)

type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusPaused Status = "PAUSED"
)

// Label is the lower-case form shown to coaches.
func (s Status) Label() string {
	if s == StatusActive {
		return "active"
	}
	return "paused"
}

type Client struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	TenantID  *string   `json:"tenantId"`
	FullName  string    `json:"fullName"`
	Status    Status    `json:"status"`
	Goal      *string   `json:"goal"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Record is the projection used for access checks.
func (c *Client) Record() auth.ClientRecord {
	return auth.ClientRecord{ID: c.ID.String(), UserID: c.UserID.String(), TenantID: c.TenantID}
}

type NutrientNorms struct {
	ClientID      uuid.UUID `json:"clientId"`
	KcalMin       *float64  `json:"kcalMin"`
	KcalMax       *float64  `json:"kcalMax"`
	ProteinGrams  *float64  `json:"proteinGrams"`
	FatGramsMin   *float64  `json:"fatGramsMin"`
	FatGramsMax   *float64  `json:"fatGramsMax"`
	CarbsGramsMin *float64  `json:"carbsGramsMin"`
	CarbsGramsMax *float64  `json:"carbsGramsMax"`
	FiberGrams    *float64  `json:"fiberGrams"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// DayStats is the nutrition total of one day.
type DayStats struct {
	ID              uuid.UUID `json:"id"`
	ClientID        uuid.UUID `json:"clientId"`
	Date            time.Time `json:"date"`
	Kcal            float64   `json:"kcal"`
	Protein         float64   `json:"protein"`
	Fat             float64   `json:"fat"`
	Carbs           float64   `json:"carbs"`
	Fiber           float64   `json:"fiber"`
	KcalCoverage    *float64  `json:"kcalCoverage"`
	ProteinCoverage *float64  `json:"proteinCoverage"`
	FiberCoverage   *float64  `json:"fiberCoverage"`
	RiskFlags       []string  `json:"riskFlags"`
}

// ListItem is a client together with its most recent day stats, if any.
type ListItem struct {
	Client *Client
	Latest *DayStats
}

type Summary struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Status          string    `json:"status"`
	Goal            *string   `json:"goal"`
	ProteinCoverage float64   `json:"proteinCoverage"`
	FiberCoverage   float64   `json:"fiberCoverage"`
	KcalCoverage    float64   `json:"kcalCoverage"`
	RiskFlags       []string  `json:"riskFlags"`
}

type Profile struct {
	ID         uuid.UUID        `json:"id"`
	Name       string           `json:"name"`
	Status     string           `json:"status"`
	Goal       *string          `json:"goal"`
	Norms      *NutrientNorms   `json:"norms"`
	DayStats   *DayStats        `json:"dayStats"`
	Labs       []*lab.LabTest   `json:"labs"`
	ActiveMenu *menu.Assignment `json:"activeMenu"`
	Events     []*event.Event   `json:"events"`
}
