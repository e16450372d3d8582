package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tmokoena/rentpilot-backend/api/middleware"
	"github.com/tmokoena/rentpilot-backend/api/responses"
	"github.com/tmokoena/rentpilot-backend/api/validators"
	"github.com/tmokoena/rentpilot-backend/internal/notifications"
	pkgerrors "github.com/tmokoena/rentpilot-backend/pkg/errors"
	"github.com/tmokoena/rentpilot-backend/pkg/logger"
)

// ListNotifications returns paginated notifications for the active landlord.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		lid, ok := landlordFromRequest(w, r, logg)
		if !ok {
			return
		}

		params := notifications.ListParams{LandlordID: lid}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit

		if cursor := strings.TrimSpace(r.URL.Query().Get("cursor")); cursor != "" {
			params.Cursor = cursor
		}

		if unread := strings.TrimSpace(r.URL.Query().Get("unreadOnly")); unread != "" {
			value, err := strconv.ParseBool(unread)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unreadOnly value"))
				return
			}
			params.UnreadOnly = value
		}

		resp, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// MarkNotificationRead marks a single notification as read for the active landlord.
func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		lid, ok := landlordFromRequest(w, r, logg)
		if !ok {
			return
		}

		nid, err := uuid.Parse(chi.URLParam(r, "notificationId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification id"))
			return
		}

		if err := svc.MarkRead(r.Context(), lid, nid); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"read": true})
	}
}

// MarkAllNotificationsRead marks every unread notification as read for the active landlord.
func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		lid, ok := landlordFromRequest(w, r, logg)
		if !ok {
			return
		}

		count, err := svc.MarkAllRead(r.Context(), lid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": count})
	}
}

// landlordFromRequest resolves and parses the landlord scope for a handler,
// writing the error response itself when the scope is missing or malformed.
func landlordFromRequest(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (uuid.UUID, bool) {
	landlordID := middleware.LandlordIDFromContext(r.Context())
	if landlordID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "landlord context missing"))
		return uuid.Nil, false
	}

	lid, err := uuid.Parse(landlordID)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid landlord id"))
		return uuid.Nil, false
	}
	return lid, true
}
