package menu

import (
	"time"

	"github.com/google/uuid"
)

type Template struct {
	ID          uuid.UUID `json:"id" yaml:"-"`
	Name        string    `json:"name" yaml:"name"`
	Description *string   `json:"description" yaml:"description"`
	Focus       *string   `json:"focus" yaml:"focus"`
	CreatedAt   time.Time `json:"createdAt" yaml:"-"`
}

// Assignment links a client to a menu template for a period. At most one
// assignment per client is active.
type Assignment struct {
	ID             uuid.UUID  `json:"id"`
	ClientID       uuid.UUID  `json:"clientId"`
	MenuTemplateID uuid.UUID  `json:"menuTemplateId"`
	StartDate      time.Time  `json:"startDate"`
	EndDate        *time.Time `json:"endDate"`
	IsActive       bool       `json:"isActive"`
	MenuTemplate   *Template  `json:"menuTemplate,omitempty"`
}

type AssignRequest struct {
	MenuTemplateID string `json:"menuTemplateId"`
	StartDate      string `json:"startDate,omitempty"`
	EndDate        string `json:"endDate,omitempty"`
}

// ClientMenu splits a client's assignments by state, newest start first.
type ClientMenu struct {
	Active   []*Assignment `json:"active"`
	Archived []*Assignment `json:"archived"`
}
