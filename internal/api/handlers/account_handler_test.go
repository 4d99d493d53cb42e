// filepath: internal/api/handlers/account_handler_test.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"backuphub/internal/models"
	"backuphub/internal/services/mocks"
	"backuphub/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGetNotifications(t *testing.T) {
	userSvc := new(mocks.MockUserService)
	h := NewHandlers(nil, userSvc, nil, nil, nil)
	userSvc.On("GetUser", "admin").Return(&models.User{
		Username:          "admin",
		EmailAlertEnabled: true,
		PushMode:          models.PushModeEmbedded,
		Tokens:            []models.AccessToken{{Token: "digest-must-not-leak", Name: "ci"}},
	}, nil).Once()

	rr := httptest.NewRecorder()
	h.GetNotifications(rr, newRequest(http.MethodGet, "/api/account/notifications", "", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "digest-must-not-leak")
	var result models.NotificationSettings
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.True(t, result.EmailAlertEnabled)
	assert.Equal(t, []string{}, result.PushTargets)
}

func TestUpdateNotifications(t *testing.T) {
	t.Run("Valid settings", func(t *testing.T) {
		userSvc := new(mocks.MockUserService)
		auditor := new(mocks.MockAuditor)
		h := NewHandlers(nil, userSvc, nil, auditor, nil)

		want := models.NotificationSettings{PushAlertEnabled: true, PushMode: models.PushModeEmbedded, PushTargets: []string{"ntfy://x"}}
		userSvc.On("UpdateNotifications", "admin", want).Return(&want, nil).Once()
		auditor.On("Log", mock.Anything, "account.notifications", "admin/ci", "User:admin", mock.Anything).Once()

		rr := httptest.NewRecorder()
		h.UpdateNotifications(rr, newRequest(http.MethodPut, "/api/account/notifications",
			`{"pushAlertEnabled":true,"pushMode":"embedded","pushTargets":["ntfy://x"]}`, nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		userSvc.AssertExpectations(t)
		auditor.AssertExpectations(t)
	})

	t.Run("Rejected by service", func(t *testing.T) {
		userSvc := new(mocks.MockUserService)
		h := NewHandlers(nil, userSvc, nil, nil, nil)
		userSvc.On("UpdateNotifications", "admin", mock.Anything).Return(nil, shared.Invalid("unknown pushMode")).Once()

		rr := httptest.NewRecorder()
		h.UpdateNotifications(rr, newRequest(http.MethodPut, "/api/account/notifications", `{"pushMode":"fax"}`, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("No identity", func(t *testing.T) {
		h := NewHandlers(nil, new(mocks.MockUserService), nil, nil, nil)
		rr := httptest.NewRecorder()
		h.UpdateNotifications(rr, httptest.NewRequest(http.MethodPut, "/api/account/notifications", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
