package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"esilogis/internal/bootstrap/logging"
	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/metrics"
	"esilogis/internal/usecase/intervention"
)

const requestIDHeader = "X-Request-ID"

type ctxActorKey struct{}

func withActor(ctx context.Context, actor intervention.Actor) context.Context {
	return context.WithValue(ctx, ctxActorKey{}, actor)
}

func actorFrom(ctx context.Context) (intervention.Actor, bool) {
	actor, ok := ctx.Value(ctxActorKey{}).(intervention.Actor)
	return actor, ok
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequest(r.Context(), id, 0)))
	})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		elapsed := time.Since(start)
		metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(status), elapsed.Seconds())

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("route", route),
			slog.Int("status", status),
			slog.Duration("duration", elapsed),
		}
		if status >= http.StatusInternalServerError {
			logging.Warn(r.Context(), "http request failed", attrs...)
			return
		}
		logging.Info(r.Context(), "http request", attrs...)
	})
}

func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			writeError(w, r, errs.WithStack(fmt.Errorf("handler panicked: %v", rec)))
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(w, r, errs.Unauthenticated("missing bearer token"))
			return
		}
		actor, err := h.auth.Authenticate(token)
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := withActor(r.Context(), actor)
		ctx = logging.WithRequest(ctx, "", actor.UserAccountID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRoles rejects roles that can never perform op. Assignment checks
// happen in the service once the intervention is loaded.
func requireRoles(op domain.Operation) func(http.Handler) http.Handler {
	allowed := domain.RolesFor(op)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := actorFrom(r.Context())
			if !ok {
				writeError(w, r, errs.Unauthenticated("missing bearer token"))
				return
			}
			for _, role := range allowed {
				if role == actor.Role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, r, errs.Permission("role %s cannot %s", actor.Role, op))
		})
	}
}
