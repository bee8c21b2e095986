package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"filevault/logger"
	"filevault/models"
	"filevault/services"
)

// FolderHandler serves /api/folders.
type FolderHandler struct {
	service services.FolderService
}

// NewFolderHandler creates a FolderHandler.
func NewFolderHandler(service services.FolderService) *FolderHandler {
	return &FolderHandler{service: service}
}

// Collection routes /api/folders.
func (h *FolderHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.List(w, r)
	case http.MethodPost:
		h.Create(w, r)
	default:
		methodNotAllowed(w)
	}
}

// Item routes /api/folders/{id}.
func (h *FolderHandler) Item(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.Get(w, r)
	case http.MethodPut:
		h.Update(w, r)
	case http.MethodDelete:
		h.Delete(w, r)
	default:
		methodNotAllowed(w)
	}
}

// List returns the caller's folders
// @Summary List folders
// @Description Returns every folder of the caller with its current file count
// @Tags folders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Folder
// @Failure 401 {object} models.APIResponse "No token provided"
// @Failure 403 {object} models.APIResponse "Invalid access token"
// @Failure 500 {object} models.APIResponse
// @Router /api/folders [get]
func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	folders, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "list folders")
		return
	}
	writeJSON(w, http.StatusOK, folders)
}

// Get returns a single folder
// @Summary Get folder
// @Tags folders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Folder ID"
// @Success 200 {object} models.Folder
// @Failure 404 {object} models.APIResponse
// @Router /api/folders/{id} [get]
func (h *FolderHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "/api/folders/")
	if !ok {
		return
	}

	folder, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, r, err, "get folder")
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

// Create makes a new folder
// @Summary Create folder
// @Tags folders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.FolderRequest true "Folder name"
// @Success 201 {object} models.Folder
// @Failure 400 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /api/folders [post]
func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.FolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	folder, err := h.service.Create(r.Context(), userID, req.Name)
	if err != nil {
		writeServiceError(w, r, err, "create folder")
		return
	}

	logger.WithFields(map[string]interface{}{
		"user_id":   userID,
		"folder_id": folder.ID,
	}).Info("Folder created")
	writeJSON(w, http.StatusCreated, folder)
}

// Update renames a folder
// @Summary Rename folder
// @Tags folders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Folder ID"
// @Param request body models.FolderRequest true "New name"
// @Success 200 {object} models.Folder
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/folders/{id} [put]
func (h *FolderHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "/api/folders/")
	if !ok {
		return
	}

	var req models.FolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	folder, err := h.service.Rename(r.Context(), userID, id, req.Name)
	if err != nil {
		writeServiceError(w, r, err, "rename folder")
		return
	}
	writeJSON(w, http.StatusOK, folder)
}

// Delete removes a folder together with its files
// @Summary Delete folder
// @Description Deletes the folder, every file in it and their stored bytes
// @Tags folders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Folder ID"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/folders/{id} [delete]
func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "/api/folders/")
	if !ok {
		return
	}

	removed, err := h.service.Delete(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, r, err, "delete folder")
		return
	}

	logger.WithFields(map[string]interface{}{
		"user_id":       userID,
		"folder_id":     id,
		"files_removed": removed,
	}).Info("Folder deleted")
	writeJSON(w, http.StatusOK, models.SuccessResponse("Folder deleted successfully", map[string]int{
		"filesDeleted": removed,
	}))
}

// pathID extracts the trailing id after prefix. Nested paths are rejected.
func pathID(w http.ResponseWriter, r *http.Request, prefix string) (string, bool) {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "Not found")
		return "", false
	}
	return id, true
}
