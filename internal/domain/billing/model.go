package billing

import "time"

// Plan is a subscription plan. Features are free-form capability keys.
type Plan struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	MaxClients int       `json:"maxClients" yaml:"maxClients"`
	Features   []string  `json:"features" yaml:"features"`
	CreatedAt  time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt  time.Time `json:"updatedAt" yaml:"-"`
}

// preferredPlan is served whenever a plan with this name exists.
const preferredPlan = "Pro"

// DemoPlan is served when no plan is stored.
func DemoPlan(now time.Time) *Plan {
	return &Plan{
		ID:         "demo-plan",
		Name:       "Demo Plan",
		MaxClients: 20,
		Features:   []string{"clients", "labs", "menu", "events", "basic-dashboard"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
