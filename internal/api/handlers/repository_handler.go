// filepath: internal/api/handlers/repository_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"backuphub/internal/logging"
	"backuphub/internal/models"
	"backuphub/internal/services/auth"

	"github.com/gorilla/mux"
)

// @Summary List repositories
// @Description Returns every repository record. An empty collection is returned as [].
// @Tags repository
// @Produce  json
// @Success 200 {array} models.Repository
// @Security BearerAuth
// @Router /repositories [get]
func (h *Handlers) ListRepositories(w http.ResponseWriter, r *http.Request) {
	repos := h.Repositories.List()
	if repos == nil {
		repos = []models.Repository{}
	}
	respondWithJSON(w, http.StatusOK, repos)
}

// @Summary Get a repository
// @Tags repository
// @Produce  json
// @Param   name  path  string  true  "Repository name"
// @Success 200 {object} models.Repository
// @Failure 404 {object} ErrorResponse "Repository not found"
// @Security BearerAuth
// @Router /repositories/{name} [get]
func (h *Handlers) GetRepository(w http.ResponseWriter, r *http.Request) {
	repo, err := h.Repositories.Get(mux.Vars(r)["name"])
	if err != nil {
		respondWithServiceError(w, err, "get repository")
		return
	}
	respondWithJSON(w, http.StatusOK, repo)
}

// @Summary Create a repository
// @Description Provisions a new repository for a public key. The name is assigned by the toolset.
// @Tags repository
// @Accept  json
// @Produce  json
// @Param   repository  body  models.RepositoryCreatePayload  true  "Repository"
// @Success 201 {object} models.Repository
// @Failure 400 {object} ErrorResponse "Invalid payload or public key"
// @Failure 409 {object} ErrorResponse "Public key already in use"
// @Failure 500 {object} ErrorResponse "Provisioning failed"
// @Security BearerAuth
// @Router /repositories [post]
func (h *Handlers) CreateRepository(w http.ResponseWriter, r *http.Request) {
	var payload models.RepositoryCreatePayload
	if err := decodeJSONBody(r, &payload); err != nil {
		logging.Log.Warnf("Failed to decode request body: %v", err)
		respondWithServiceError(w, err, "create repository")
		return
	}

	repo, err := h.Repositories.Create(r.Context(), payload)
	if err != nil {
		respondWithServiceError(w, err, "create repository")
		return
	}

	h.audit(r, "repository.create", repo.Name, map[string]interface{}{
		"alias":      repo.Alias,
		"quota":      repo.StorageQuotaBytes,
		"appendOnly": repo.AppendOnly,
	})
	respondWithJSON(w, http.StatusCreated, repo)
}

// @Summary Update a repository
// @Description Partially updates a repository. Key, quota and append-only changes are applied by the toolset.
// @Tags repository
// @Accept  json
// @Produce  json
// @Param   name        path  string                          true  "Repository name"
// @Param   repository  body  models.RepositoryUpdatePayload  true  "Fields to change"
// @Success 200 {object} models.Repository
// @Failure 400 {object} ErrorResponse "Invalid payload"
// @Failure 404 {object} ErrorResponse "Repository not found"
// @Failure 409 {object} ErrorResponse "Public key already in use"
// @Security BearerAuth
// @Router /repositories/{name} [patch]
func (h *Handlers) UpdateRepository(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var payload models.RepositoryUpdatePayload
	if err := decodeJSONBody(r, &payload); err != nil {
		respondWithServiceError(w, err, "update repository")
		return
	}

	repo, err := h.Repositories.Update(r.Context(), name, payload)
	if err != nil {
		respondWithServiceError(w, err, "update repository")
		return
	}

	h.audit(r, "repository.update", name, map[string]interface{}{
		"quota":      repo.StorageQuotaBytes,
		"appendOnly": repo.AppendOnly,
		"keyChanged": payload.PublicKey != nil,
	})
	respondWithJSON(w, http.StatusOK, repo)
}

// @Summary Delete a repository
// @Description Destroys the repository and its data, then removes the record.
// @Tags repository
// @Param   name  path  string  true  "Repository name"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse "Repository not found"
// @Security BearerAuth
// @Router /repositories/{name} [delete]
func (h *Handlers) DeleteRepository(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.Repositories.Destroy(r.Context(), name); err != nil {
		respondWithServiceError(w, err, "delete repository")
		return
	}
	h.audit(r, "repository.delete", name, nil)
	w.WriteHeader(http.StatusNoContent)
}

// @Summary Compact a repository
// @Description Frees space in a repository. Runs in the background unless wait=true.
// @Tags repository
// @Param   name  path   string  true   "Repository name"
// @Param   wait  query  bool    false  "Block until compaction finishes"
// @Success 200 {object} MessageResponse
// @Success 202 {object} MessageResponse
// @Failure 404 {object} ErrorResponse "Repository not found"
// @Security BearerAuth
// @Router /repositories/{name}/compact [post]
func (h *Handlers) CompactRepository(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	blocking := false
	if v := r.URL.Query().Get("wait"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid value for query parameter: wait")
			return
		}
		blocking = b
	}

	if err := h.Repositories.Compact(r.Context(), name, blocking); err != nil {
		respondWithServiceError(w, err, "compact repository")
		return
	}

	h.audit(r, "repository.compact", name, map[string]interface{}{"blocking": blocking})
	if blocking {
		respondWithJSON(w, http.StatusOK, MessageResponse{Message: "Compaction finished."})
		return
	}
	respondWithJSON(w, http.StatusAccepted, MessageResponse{Message: "Compaction started."})
}

// audit records a repository mutation on behalf of the calling token.
func (h *Handlers) audit(r *http.Request, action, name string, details map[string]interface{}) {
	if h.Auditor == nil {
		return
	}
	h.Auditor.Log(r.Context(), action, actor(r), fmt.Sprintf("Repository:%s", name), details)
}

func actor(r *http.Request) string {
	user, token := auth.FromContext(r.Context())
	switch {
	case user != nil && token != nil:
		return user.Username + "/" + token.Name
	case user != nil:
		return user.Username
	default:
		return "anonymous"
	}
}
