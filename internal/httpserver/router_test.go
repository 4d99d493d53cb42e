// filepath: internal/httpserver/router_test.go
package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backuphub/internal/api/handlers"
	"backuphub/internal/models"
	"backuphub/internal/services/auth"
	"backuphub/internal/services/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRouterPermissions(t *testing.T) {
	userSvc := new(mocks.MockUserService)
	repoSvc := new(mocks.MockRepositoryService)
	monitorSvc := new(mocks.MockMonitorService)
	auditor := new(mocks.MockAuditor)

	admin := &models.User{Username: "admin"}
	userSvc.On("ResolveToken", "reader").Return(admin, &models.TokenInfo{Name: "reader", Permissions: models.Permissions{Read: true}}, nil)
	userSvc.On("ResolveToken", "operator").Return(admin, &models.TokenInfo{Name: "operator", Permissions: models.Permissions{Read: true, Update: true, Delete: true}}, nil)

	repoSvc.On("List").Return([]models.Repository{})
	repoSvc.On("Destroy", mock.Anything, "a1b2c3d4").Return(nil)
	monitorSvc.On("TriggerStatus", mock.Anything).Return(&models.StatusReport{NoOp: true}, nil)
	auditor.On("Log", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	h := handlers.NewHandlers(repoSvc, userSvc, monitorSvc, auditor, nil)
	router := SetupRouter(h, auth.NewMiddleware(userSvc))

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		status int
	}{
		{"Health is public", "GET", "/health", "", "", http.StatusOK},
		{"API needs a token", "GET", "/api/repositories", "", "", http.StatusUnauthorized},
		{"Reader can list", "GET", "/api/repositories", "reader", "", http.StatusOK},
		{"Reader cannot create", "POST", "/api/repositories", "reader", `{}`, http.StatusForbidden},
		{"Reader cannot delete", "DELETE", "/api/repositories/a1b2c3d4", "reader", "", http.StatusForbidden},
		{"Reader cannot trigger cron", "POST", "/api/cron/status", "reader", "", http.StatusForbidden},
		{"Operator can delete", "DELETE", "/api/repositories/a1b2c3d4", "operator", "", http.StatusNoContent},
		{"Operator can trigger cron", "POST", "/api/cron/status", "operator", "", http.StatusOK},
		{"Unknown route", "GET", "/nowhere", "", "", http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tc.status, rr.Code, rr.Body.String())
		})
	}

	repoSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
