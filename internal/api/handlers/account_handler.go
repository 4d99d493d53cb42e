// filepath: internal/api/handlers/account_handler.go
package handlers

import (
	"net/http"

	"backuphub/internal/models"
	"backuphub/internal/services/auth"
)

// @Summary Get notification settings
// @Description Returns the alert preferences of the token owner.
// @Tags account
// @Produce  json
// @Success 200 {object} models.NotificationSettings
// @Security BearerAuth
// @Router /account/notifications [get]
func (h *Handlers) GetNotifications(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.FromContext(r.Context())
	if owner == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user, err := h.User.GetUser(owner.Username)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "User not found.")
		return
	}

	targets := user.PushTargets
	if targets == nil {
		targets = []string{}
	}
	respondWithJSON(w, http.StatusOK, models.NotificationSettings{
		EmailAlertEnabled: user.EmailAlertEnabled,
		PushAlertEnabled:  user.PushAlertEnabled,
		PushMode:          user.PushMode,
		PushTargets:       targets,
		PushRelayURL:      user.PushRelayURL,
	})
}

// @Summary Update notification settings
// @Tags account
// @Accept  json
// @Produce  json
// @Param   settings  body  models.NotificationSettings  true  "Alert preferences"
// @Success 200 {object} models.NotificationSettings
// @Failure 400 {object} ErrorResponse "Invalid settings"
// @Security BearerAuth
// @Router /account/notifications [put]
func (h *Handlers) UpdateNotifications(w http.ResponseWriter, r *http.Request) {
	owner, _ := auth.FromContext(r.Context())
	if owner == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var settings models.NotificationSettings
	if err := decodeJSONBody(r, &settings); err != nil {
		respondWithServiceError(w, err, "update notification settings")
		return
	}

	updated, err := h.User.UpdateNotifications(owner.Username, settings)
	if err != nil {
		respondWithServiceError(w, err, "update notification settings")
		return
	}

	if h.Auditor != nil {
		h.Auditor.Log(r.Context(), "account.notifications", actor(r), "User:"+owner.Username, map[string]interface{}{
			"email": updated.EmailAlertEnabled,
			"push":  updated.PushAlertEnabled,
			"mode":  string(updated.PushMode),
		})
	}
	respondWithJSON(w, http.StatusOK, updated)
}
