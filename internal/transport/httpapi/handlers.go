package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"esilogis/internal/errs"
	"esilogis/internal/ports"
	"esilogis/internal/usecase/intervention"
)

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, loginResponse{
		AccessToken:   token.AccessToken,
		TokenType:     "Bearer",
		ExpiresAt:     token.ExpiresAt,
		UserAccountID: token.Actor.UserAccountID,
		Role:          string(token.Actor.Role),
	})
}

// listInterventions serves the full list, or one type of it with ?type=.
func (h *Handler) listInterventions(w http.ResponseWriter, r *http.Request) {
	rawType := strings.TrimSpace(r.URL.Query().Get("type"))
	if rawType == "" {
		h.writeList(w, r, h.lifecycle.ListInterventions)
		return
	}
	h.writeList(w, r, func(ctx context.Context, actor intervention.Actor) ([]ports.Intervention, error) {
		return h.lifecycle.ListByType(ctx, actor, rawType)
	})
}

func (h *Handler) listPlanned(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.lifecycle.ListPlanned)
}

func (h *Handler) listAssigned(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.lifecycle.ListAssigned)
}

func (h *Handler) listReported(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.lifecycle.ListReported)
}

type listFunc func(ctx context.Context, actor intervention.Actor) ([]ports.Intervention, error)

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, list listFunc) {
	actor, _ := actorFrom(r.Context())
	items, err := list(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toInterventionViews(items))
}

func (h *Handler) getIntervention(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, h.lifecycle.GetIntervention, http.StatusOK)
}

func (h *Handler) interventionHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	actor, _ := actorFrom(r.Context())
	entries, err := h.lifecycle.History(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]historyView, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toHistoryView(entry))
	}
	writeData(w, http.StatusOK, out)
}

func (h *Handler) deactivateIntervention(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, h.lifecycle.Deactivate, http.StatusOK)
}

func (h *Handler) pauseIntervention(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, h.lifecycle.Pause, http.StatusOK)
}

func (h *Handler) resumeIntervention(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, h.lifecycle.Resume, http.StatusOK)
}

type byIDFunc func(ctx context.Context, actor intervention.Actor, id uint64) (ports.Intervention, error)

func (h *Handler) withID(w http.ResponseWriter, r *http.Request, op byIDFunc, status int) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	actor, _ := actorFrom(r.Context())
	item, err := op(r.Context(), actor, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, status, toInterventionView(item))
}

func (h *Handler) reportIntervention(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	actor, _ := actorFrom(r.Context())
	item, err := h.lifecycle.Report(r.Context(), actor, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toInterventionView(item))
}

func (h *Handler) planIntervention(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	input, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return
	}
	actor, _ := actorFrom(r.Context())
	item, err := h.lifecycle.Plan(r.Context(), actor, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, toInterventionView(item))
}

func (h *Handler) updateIntervention(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	actor, _ := actorFrom(r.Context())
	item, err := h.lifecycle.Update(r.Context(), actor, id, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toInterventionView(item))
}

func (h *Handler) assignInterventions(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	actor, _ := actorFrom(r.Context())
	items, err := h.lifecycle.Assign(r.Context(), actor, intervention.AssignInput{
		InterventionIDs: req.InterventionIDs,
		TechnicianIDs:   req.TechnicianIDs,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, toInterventionViews(items))
}

func (h *Handler) resolveIntervention(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req resolveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	actor, _ := actorFrom(r.Context())
	res, err := h.lifecycle.Resolve(r.Context(), actor, id, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	view := resolveView{
		Intervention: toInterventionView(res.Intervention),
		History:      toHistoryView(res.History),
	}
	if res.Recurring != nil {
		recurring := toInterventionView(*res.Recurring)
		view.Recurring = &recurring
	}
	writeData(w, http.StatusOK, view)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	counts, err := h.lifecycle.Stats(r.Context(), actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make(map[string]int64, len(counts))
	for status, n := range counts {
		out[string(status)] = n
	}
	writeData(w, http.StatusOK, out)
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))

	items, err := h.inbox.ListForAccount(r.Context(), actor.UserAccountID, unreadOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]notificationView, 0, len(items))
	for _, n := range items {
		out = append(out, notificationView{
			ID:             n.ID,
			InterventionID: n.InterventionID,
			Kind:           n.Kind,
			Message:        n.Message,
			EmailStatus:    n.EmailStatus,
			ReadAt:         n.ReadAt,
			CreatedAt:      n.CreatedAt,
		})
	}
	writeData(w, http.StatusOK, out)
}

func (h *Handler) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	actor, _ := actorFrom(r.Context())
	if actor.UserAccountID == 0 {
		writeError(w, r, errs.Unauthenticated("missing bearer token"))
		return
	}
	if err := h.inbox.MarkRead(r.Context(), actor.UserAccountID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]uint64{"id": id})
}
