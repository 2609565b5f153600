// Package httpapi exposes the intervention lifecycle over JSON/HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/ports"
	"esilogis/internal/usecase/auth"
	"esilogis/internal/usecase/intervention"
)

type Lifecycle interface {
	ListInterventions(ctx context.Context, actor intervention.Actor) ([]ports.Intervention, error)
	ListByType(ctx context.Context, actor intervention.Actor, rawType string) ([]ports.Intervention, error)
	GetIntervention(ctx context.Context, actor intervention.Actor, id uint64) (ports.Intervention, error)
	History(ctx context.Context, actor intervention.Actor, id uint64) ([]ports.HistoryEntry, error)
	ListPlanned(ctx context.Context, actor intervention.Actor) ([]ports.Intervention, error)
	ListAssigned(ctx context.Context, actor intervention.Actor) ([]ports.Intervention, error)
	ListReported(ctx context.Context, actor intervention.Actor) ([]ports.Intervention, error)
	Report(ctx context.Context, actor intervention.Actor, input intervention.ReportInput) (ports.Intervention, error)
	Plan(ctx context.Context, actor intervention.Actor, input intervention.PlanInput) (ports.Intervention, error)
	Update(ctx context.Context, actor intervention.Actor, id uint64, input intervention.UpdateInput) (ports.Intervention, error)
	Deactivate(ctx context.Context, actor intervention.Actor, id uint64) (ports.Intervention, error)
	Assign(ctx context.Context, actor intervention.Actor, input intervention.AssignInput) ([]ports.Intervention, error)
	Pause(ctx context.Context, actor intervention.Actor, id uint64) (ports.Intervention, error)
	Resume(ctx context.Context, actor intervention.Actor, id uint64) (ports.Intervention, error)
	Resolve(ctx context.Context, actor intervention.Actor, id uint64, input intervention.ResolveInput) (intervention.ResolveResult, error)
	Stats(ctx context.Context, actor intervention.Actor) (map[domain.Status]int64, error)
}

type Authenticator interface {
	Login(ctx context.Context, email string, password string) (auth.Token, error)
	Authenticate(raw string) (intervention.Actor, error)
}

type Inbox interface {
	ListForAccount(ctx context.Context, accountID uint64, unreadOnly bool) ([]ports.Notification, error)
	MarkRead(ctx context.Context, accountID uint64, id uint64) error
}

type Handler struct {
	lifecycle Lifecycle
	auth      Authenticator
	inbox     Inbox
}

func NewHandler(lifecycle Lifecycle, authenticator Authenticator, inbox Inbox) *Handler {
	return &Handler{
		lifecycle: lifecycle,
		auth:      authenticator,
		inbox:     inbox,
	}
}

// Routes builds the router. Everything under /api except login needs a bearer
// token; role gates come from the lifecycle policy table and the services
// re-check ownership.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]string{"status": "ok"}})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Route("/intervention", func(r chi.Router) {
				r.With(requireRoles(domain.OpList)).Get("/", h.listInterventions)
				r.With(requireRoles(domain.OpReport)).Post("/", h.reportIntervention)
				r.With(requireRoles(domain.OpPlan)).Post("/planify", h.planIntervention)
				r.With(requireRoles(domain.OpAssign)).Post("/assign", h.assignInterventions)
				r.With(requireRoles(domain.OpList)).Get("/planned", h.listPlanned)
				r.With(requireRoles(domain.OpViewAssigned)).Get("/assigned", h.listAssigned)
				r.With(requireRoles(domain.OpViewReported)).Get("/reported", h.listReported)
				r.With(requireRoles(domain.OpStats)).Get("/stats", h.stats)

				r.Route("/{id}", func(r chi.Router) {
					r.With(requireRoles(domain.OpView)).Get("/", h.getIntervention)
					r.With(requireRoles(domain.OpView)).Get("/history", h.interventionHistory)
					r.With(requireRoles(domain.OpUpdate)).Patch("/", h.updateIntervention)
					r.With(requireRoles(domain.OpDeactivate)).Delete("/", h.deactivateIntervention)
					r.With(requireRoles(domain.OpPause)).Patch("/pause", h.pauseIntervention)
					r.With(requireRoles(domain.OpResume)).Patch("/resume", h.resumeIntervention)
					r.With(requireRoles(domain.OpResolve)).Post("/resolve", h.resolveIntervention)
				})
			})

			r.Route("/notification", func(r chi.Router) {
				r.Get("/", h.listNotifications)
				r.Patch("/{id}/read", h.markNotificationRead)
			})
		})
	})

	return r
}
