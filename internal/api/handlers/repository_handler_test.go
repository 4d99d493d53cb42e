// filepath: internal/api/handlers/repository_handler_test.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backuphub/internal/models"
	"backuphub/internal/services/auth"
	"backuphub/internal/services/mocks"
	"backuphub/internal/shared"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRepositoryHandlers() (*Handlers, *mocks.MockRepositoryService, *mocks.MockAuditor) {
	repoSvc := new(mocks.MockRepositoryService)
	auditor := new(mocks.MockAuditor)
	return NewHandlers(repoSvc, nil, nil, auditor, nil), repoSvc, auditor
}

// newRequest builds a request carrying an authenticated identity and mux vars.
func newRequest(method, target, body string, vars map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := auth.WithIdentity(req.Context(), &models.User{Username: "admin"}, &models.TokenInfo{Name: "ci"})
	req = req.WithContext(ctx)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

func TestListRepositories(t *testing.T) {
	h, repoSvc, _ := setupRepositoryHandlers()

	t.Run("Empty collection is an array", func(t *testing.T) {
		repoSvc.On("List").Return(nil).Once()
		rr := httptest.NewRecorder()
		h.ListRepositories(rr, newRequest(http.MethodGet, "/api/repositories", "", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "[]", rr.Body.String())
	})

	t.Run("Records are returned", func(t *testing.T) {
		repoSvc.On("List").Return([]models.Repository{{Name: "a1b2c3d4", Alias: "laptop"}}).Once()
		rr := httptest.NewRecorder()
		h.ListRepositories(rr, newRequest(http.MethodGet, "/api/repositories", "", nil))

		var result []models.Repository
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		require.Len(t, result, 1)
		assert.Equal(t, "laptop", result[0].Alias)
	})
}

func TestCreateRepository(t *testing.T) {
	t.Run("Successful creation", func(t *testing.T) {
		h, repoSvc, auditor := setupRepositoryHandlers()
		payload := models.RepositoryCreatePayload{Alias: "laptop", PublicKey: "ssh-ed25519 AAAA", AlertThresholdSeconds: 3600}
		created := &models.Repository{Name: "a1b2c3d4", Alias: "laptop", AlertThresholdSeconds: 3600}
		repoSvc.On("Create", mock.Anything, payload).Return(created, nil).Once()
		auditor.On("Log", mock.Anything, "repository.create", "admin/ci", "Repository:a1b2c3d4", mock.Anything).Once()

		rr := httptest.NewRecorder()
		h.CreateRepository(rr, newRequest(http.MethodPost, "/api/repositories",
			`{"alias":"laptop","publicKey":"ssh-ed25519 AAAA","alertThresholdSeconds":3600}`, nil))

		assert.Equal(t, http.StatusCreated, rr.Code)
		var result models.Repository
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, "a1b2c3d4", result.Name)
		assert.False(t, result.Status)
		repoSvc.AssertExpectations(t)
		auditor.AssertExpectations(t)
	})

	t.Run("Client supplied name is rejected", func(t *testing.T) {
		h, repoSvc, _ := setupRepositoryHandlers()
		rr := httptest.NewRecorder()
		h.CreateRepository(rr, newRequest(http.MethodPost, "/api/repositories",
			`{"alias":"laptop","publicKey":"k","name":"deadbeef"}`, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		repoSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		h, repoSvc, _ := setupRepositoryHandlers()
		rr := httptest.NewRecorder()
		h.CreateRepository(rr, newRequest(http.MethodPost, "/api/repositories", `{"alias":`, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		repoSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	errorCases := []struct {
		name   string
		err    error
		status int
	}{
		{"Invalid key", shared.Invalid("unsupported or malformed public key"), http.StatusBadRequest},
		{"Duplicate key", shared.ErrConflict, http.StatusConflict},
		{"Toolset failure", &shared.ProcessError{Op: "provision", Diagnostic: "secret stderr"}, http.StatusInternalServerError},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			h, repoSvc, auditor := setupRepositoryHandlers()
			repoSvc.On("Create", mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			rr := httptest.NewRecorder()
			h.CreateRepository(rr, newRequest(http.MethodPost, "/api/repositories", `{"alias":"a","publicKey":"k"}`, nil))

			assert.Equal(t, tc.status, rr.Code)
			assert.NotContains(t, rr.Body.String(), "secret stderr")
			auditor.AssertNotCalled(t, "Log", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateRepository(t *testing.T) {
	h, repoSvc, auditor := setupRepositoryHandlers()
	quota := int64(2048)
	repoSvc.On("Update", mock.Anything, "a1b2c3d4", models.RepositoryUpdatePayload{StorageQuotaBytes: &quota}).
		Return(&models.Repository{Name: "a1b2c3d4", StorageQuotaBytes: 2048}, nil).Once()
	auditor.On("Log", mock.Anything, "repository.update", "admin/ci", "Repository:a1b2c3d4", mock.Anything).Once()

	rr := httptest.NewRecorder()
	h.UpdateRepository(rr, newRequest(http.MethodPatch, "/api/repositories/a1b2c3d4",
		`{"storageQuotaBytes":2048}`, map[string]string{"name": "a1b2c3d4"}))

	assert.Equal(t, http.StatusOK, rr.Code)
	repoSvc.AssertExpectations(t)
	auditor.AssertExpectations(t)
}

func TestDeleteRepository(t *testing.T) {
	h, repoSvc, auditor := setupRepositoryHandlers()
	repoSvc.On("Destroy", mock.Anything, "a1b2c3d4").Return(nil).Once()
	repoSvc.On("Destroy", mock.Anything, "a1b2c3d4").Return(shared.ErrNotFound).Once()
	auditor.On("Log", mock.Anything, "repository.delete", "admin/ci", "Repository:a1b2c3d4", mock.Anything).Once()

	vars := map[string]string{"name": "a1b2c3d4"}
	rr := httptest.NewRecorder()
	h.DeleteRepository(rr, newRequest(http.MethodDelete, "/api/repositories/a1b2c3d4", "", vars))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	h.DeleteRepository(rr, newRequest(http.MethodDelete, "/api/repositories/a1b2c3d4", "", vars))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	repoSvc.AssertExpectations(t)
	auditor.AssertExpectations(t)
}

func TestCompactRepository(t *testing.T) {
	vars := map[string]string{"name": "a1b2c3d4"}

	t.Run("Background by default", func(t *testing.T) {
		h, repoSvc, auditor := setupRepositoryHandlers()
		repoSvc.On("Compact", mock.Anything, "a1b2c3d4", false).Return(nil).Once()
		auditor.On("Log", mock.Anything, "repository.compact", mock.Anything, mock.Anything, mock.Anything).Once()

		rr := httptest.NewRecorder()
		h.CompactRepository(rr, newRequest(http.MethodPost, "/api/repositories/a1b2c3d4/compact", "", vars))
		assert.Equal(t, http.StatusAccepted, rr.Code)
	})

	t.Run("Blocking", func(t *testing.T) {
		h, repoSvc, auditor := setupRepositoryHandlers()
		repoSvc.On("Compact", mock.Anything, "a1b2c3d4", true).Return(nil).Once()
		auditor.On("Log", mock.Anything, "repository.compact", mock.Anything, mock.Anything, mock.Anything).Once()

		rr := httptest.NewRecorder()
		h.CompactRepository(rr, newRequest(http.MethodPost, "/api/repositories/a1b2c3d4/compact?wait=true", "", vars))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("Invalid wait flag", func(t *testing.T) {
		h, repoSvc, _ := setupRepositoryHandlers()
		rr := httptest.NewRecorder()
		h.CompactRepository(rr, newRequest(http.MethodPost, "/api/repositories/a1b2c3d4/compact?wait=maybe", "", vars))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		repoSvc.AssertNotCalled(t, "Compact", mock.Anything, mock.Anything, mock.Anything)
	})
}
