package intervention

import (
	"context"
	"encoding/json"
	"log/slog"

	"esilogis/internal/bootstrap/logging"
	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/ports"
)

// ListInterventions returns every intervention, newest first.
func (s *Service) ListInterventions(ctx context.Context, actor Actor) ([]ports.Intervention, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := domain.Authorize(domain.OpList, actor.Role, false); err != nil {
		return nil, err
	}
	return s.list(ctx, ports.InterventionFilter{})
}

// ListByType narrows the full list to one intervention type.
func (s *Service) ListByType(ctx context.Context, actor Actor, rawType string) ([]ports.Intervention, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := domain.Authorize(domain.OpList, actor.Role, false); err != nil {
		return nil, err
	}

	kind, err := domain.ParseType(rawType)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, ports.InterventionFilter{Type: &kind})
}

func (s *Service) GetIntervention(ctx context.Context, actor Actor, id uint64) (ports.Intervention, error) {
	if err := s.checkReady(ctx); err != nil {
		return ports.Intervention{}, err
	}
	if err := domain.Authorize(domain.OpView, actor.Role, false); err != nil {
		return ports.Intervention{}, err
	}

	item, err := s.repo.GetInterventionDetail(ctx, id)
	if err != nil {
		return ports.Intervention{}, errs.Persistence(err, "get intervention")
	}
	return item, nil
}

// History returns the timeline of one intervention, oldest entry first.
func (s *Service) History(ctx context.Context, actor Actor, id uint64) ([]ports.HistoryEntry, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := domain.Authorize(domain.OpView, actor.Role, false); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetIntervention(ctx, id); err != nil {
		return nil, errs.Persistence(err, "get intervention")
	}
	entries, err := s.repo.ListHistory(ctx, id)
	if err != nil {
		return nil, errs.Persistence(err, "list history")
	}
	return entries, nil
}

// ListPlanned returns preventive interventions by planned date.
func (s *Service) ListPlanned(ctx context.Context, actor Actor) ([]ports.Intervention, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := domain.Authorize(domain.OpList, actor.Role, false); err != nil {
		return nil, err
	}

	preventive := domain.TypePreventive
	return s.list(ctx, ports.InterventionFilter{Type: &preventive, OrderByPlanned: true})
}

func (s *Service) ListAssigned(ctx context.Context, actor Actor) ([]ports.Intervention, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := domain.Authorize(domain.OpViewAssigned, actor.Role, false); err != nil {
		return nil, err
	}

	person, err := s.actorPerson(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, ports.InterventionFilter{AssigneeID: &person.ID})
}

func (s *Service) ListReported(ctx context.Context, actor Actor) ([]ports.Intervention, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := domain.Authorize(domain.OpViewReported, actor.Role, false); err != nil {
		return nil, err
	}

	reporter := actor.UserAccountID
	return s.list(ctx, ports.InterventionFilter{ReportedByID: &reporter})
}

func (s *Service) list(ctx context.Context, filter ports.InterventionFilter) ([]ports.Intervention, error) {
	items, err := s.repo.ListInterventions(ctx, filter)
	if err != nil {
		return nil, errs.Persistence(err, "list interventions")
	}
	return items, nil
}

// Stats counts interventions per status for the dashboard. Every status is
// present in the result. Counts are served from the cache when possible.
func (s *Service) Stats(ctx context.Context, actor Actor) (map[domain.Status]int64, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := domain.Authorize(domain.OpStats, actor.Role, false); err != nil {
		return nil, err
	}

	if cached, ok := s.cachedStats(ctx); ok {
		return cached, nil
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, errs.Persistence(err, "count interventions")
	}
	stats := make(map[domain.Status]int64, len(counts))
	for _, status := range domain.Statuses() {
		stats[status] = counts[status]
	}

	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, cacheStatsKey, string(raw), s.cfg.StatsTTL); err != nil {
				logging.Warn(ctx, "cache intervention stats", slog.Any("err", errs.Loggable(err)))
			}
		}
	}
	return stats, nil
}

func (s *Service) cachedStats(ctx context.Context) (map[domain.Status]int64, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, found, err := s.cache.Get(ctx, cacheStatsKey)
	if err != nil {
		logging.Warn(ctx, "read stats cache", slog.Any("err", errs.Loggable(err)))
		return nil, false
	}
	if !found {
		return nil, false
	}

	var stats map[domain.Status]int64
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		logging.Warn(ctx, "decode stats cache", slog.Any("err", errs.Loggable(err)))
		return nil, false
	}
	logging.Debug(ctx, "intervention stats served from cache", slog.String("key", cacheStatsKey))
	return stats, true
}
