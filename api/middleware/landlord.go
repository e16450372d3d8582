package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tmokoena/rentpilot-backend/api/responses"
	pkgerrors "github.com/tmokoena/rentpilot-backend/pkg/errors"
	"github.com/tmokoena/rentpilot-backend/pkg/logger"
)

const landlordIDHeader = "X-Landlord-Id"

type landlordCtxKey struct{}

// LandlordContext requires a landlord identity on the request and stores it in
// the context. The edge proxy authenticates the caller and forwards the
// resolved landlord id in the header.
func LandlordContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(landlordIDHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "landlord context missing"))
				return
			}
			if _, err := uuid.Parse(raw); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid landlord id"))
				return
			}

			ctx := context.WithValue(r.Context(), landlordCtxKey{}, raw)
			if logg != nil {
				ctx = logg.WithLandlordID(ctx, raw)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithLandlordID stores a landlord id on the context directly. Useful in
// handlers invoked outside the middleware chain.
func WithLandlordID(ctx context.Context, landlordID string) context.Context {
	return context.WithValue(ctx, landlordCtxKey{}, landlordID)
}

// LandlordIDFromContext returns the landlord id set by LandlordContext, or "".
func LandlordIDFromContext(ctx context.Context) string {
	if value, ok := ctx.Value(landlordCtxKey{}).(string); ok {
		return value
	}
	return ""
}
