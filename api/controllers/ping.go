package controllers

import (
	"net/http"

	"github.com/tmokoena/rentpilot-backend/api/middleware"
	"github.com/tmokoena/rentpilot-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if landlord := middleware.LandlordIDFromContext(r.Context()); landlord != "" {
			payload["landlord_id"] = landlord
		}
		responses.WriteSuccess(w, payload)
	}
}
