package dashboard

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/nutriflow/nutriflow/internal/domain/client"
	"github.com/nutriflow/nutriflow/internal/domain/event"
	"github.com/nutriflow/nutriflow/internal/platform/auth"
)

const upcomingEvents = 20

// KeyLowMarkers are the markers whose LOW results count a client as a lab risk.
var KeyLowMarkers = []string{"FERRITIN", "VITD25OH", "B12"}

// EventSource lists upcoming events visible to a user.
type EventSource interface {
	UpcomingLimit(ctx context.Context, user auth.AuthUser, limit int) ([]*event.Event, error)
}

type Service struct {
	repo   Repository
	events EventSource
}

func NewService(repo Repository, events EventSource) *Service {
	return &Service{repo: repo, events: events}
}

// Summary aggregates the dashboard over the clients user may access.
func (s *Service) Summary(ctx context.Context, user auth.AuthUser) (*Summary, error) {
	filter := auth.AccessibleClientFilter(user)
	var (
		risks  []ClientRisk
		events []*event.Event
		menus  int
		lowLab int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		risks, err = s.repo.ClientRisks(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		events, err = s.events.UpcomingLimit(gctx, user, upcomingEvents)
		return err
	})
	g.Go(func() (err error) {
		menus, err = s.repo.ActiveMenuClients(gctx, filter)
		return err
	})
	g.Go(func() (err error) {
		lowLab, err = s.repo.LowMarkerClients(gctx, filter, KeyLowMarkers)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}

	out := &Summary{
		TotalClients:        len(risks),
		Risks:               Shares(risks),
		EventsUpcomingCount: len(events),
		Events:              make([]EventItem, 0, len(events)),
		Menu:                MenuStats{ClientsWithActiveMenu: menus},
		Labs:                LabStats{LowRiskClients: lowLab},
	}
	for _, r := range risks {
		if r.Active {
			out.ActiveClients++
		}
	}
	for _, e := range events {
		out.Events = append(out.Events, EventItem{
			ID:          e.ID,
			ClientID:    e.ClientID,
			Title:       e.Title,
			ScheduledAt: e.ScheduledAt,
			Channel:     e.Channel,
			Type:        e.Type,
		})
	}
	return out, nil
}

// Shares counts each risk flag across clients and returns the percentages.
// A client without day stats, or whose latest day has no flags, counts as ok.
func Shares(risks []ClientRisk) RiskShares {
	var ok, protein, fiber, kcal int
	for _, r := range risks {
		if !r.HasStats || len(r.Flags) == 0 {
			ok++
			continue
		}
		for _, f := range r.Flags {
			switch f {
			case client.FlagOK:
				ok++
			case client.FlagProteinLow:
				protein++
			case client.FlagFiberLow:
				fiber++
			case client.FlagOverKcal:
				kcal++
			}
		}
	}
	total := len(risks)
	return RiskShares{
		OK:         percent(ok, total),
		ProteinLow: percent(protein, total),
		FiberLow:   percent(fiber, total),
		OverKcal:   percent(kcal, total),
	}
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}
