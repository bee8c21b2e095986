package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"filevault/logger"
	"filevault/models"
	"filevault/services"
	"filevault/utils"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

// FileHandler serves /api/files.
type FileHandler struct {
	service   services.FileService
	maxUpload int64
	signer    *utils.URLSigner
}

// NewFileHandler creates a FileHandler. signer may be nil, in which case
// download URLs are unsigned.
func NewFileHandler(service services.FileService, maxUpload int64, signer *utils.URLSigner) *FileHandler {
	return &FileHandler{service: service, maxUpload: maxUpload, signer: signer}
}

// Collection routes /api/files.
func (h *FileHandler) Collection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	h.List(w, r)
}

// UploadRoute routes /api/files/upload.
func (h *FileHandler) UploadRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	h.Upload(w, r)
}

// Item routes /api/files/{id}.
func (h *FileHandler) Item(w http.ResponseWriter, r *http.Request) {
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

// List returns the caller's files
// @Summary List files
// @Description Returns every file of the caller, newest first, with a download URL
// @Tags files
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.File
// @Failure 401 {object} models.APIResponse "No token provided"
// @Failure 403 {object} models.APIResponse "Invalid access token"
// @Router /api/files [get]
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	files, err := h.service.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "list files")
		return
	}
	for i := range files {
		files[i].URL = h.downloadURL(r, files[i].Path)
	}
	writeJSON(w, http.StatusOK, files)
}

// Get returns one file
// @Summary Get file
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path string true "File ID"
// @Success 200 {object} models.File
// @Failure 404 {object} models.APIResponse
// @Router /api/files/{id} [get]
func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "/api/files/")
	if !ok {
		return
	}

	file, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, r, err, "get file")
		return
	}
	file.URL = h.downloadURL(r, file.Path)
	writeJSON(w, http.StatusOK, file)
}

// Upload stores one multipart file
// @Summary Upload file
// @Tags files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File to upload"
// @Param folderId formData string false "Target folder ID"
// @Success 201 {object} models.File
// @Failure 400 {object} models.APIResponse "No files were uploaded"
// @Failure 404 {object} models.APIResponse "Folder not found"
// @Failure 413 {object} models.APIResponse "File too large"
// @Router /api/files/upload [post]
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+int64(1<<20))
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			writeError(w, http.StatusBadRequest, "No files were uploaded")
		default:
			writeError(w, http.StatusBadRequest, "Failed to parse upload request")
		}
		return
	}
	defer r.MultipartForm.RemoveAll()

	part, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No files were uploaded")
		return
	}
	defer part.Close()

	if header.Size > h.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	file, err := h.service.Upload(r.Context(), userID, services.UploadInput{
		Name:     header.Filename,
		Type:     header.Header.Get("Content-Type"),
		FolderID: r.FormValue("folderId"),
		Body:     part,
	})
	if err != nil {
		writeServiceError(w, r, err, "upload file")
		return
	}

	logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"file_id": file.ID,
		"size":    file.Size,
	}).Info("File uploaded")

	file.URL = h.downloadURL(r, file.Path)
	writeJSON(w, http.StatusCreated, file)
}

// Update renames and/or moves a file
// @Summary Update file
// @Description Renames the file when name is set and moves it when folderId is set ("" moves it to the top level)
// @Tags files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "File ID"
// @Param request body models.UpdateFileRequest true "Fields to change"
// @Success 200 {object} models.File
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/files/{id} [put]
func (h *FileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "/api/files/")
	if !ok {
		return
	}

	var req models.UpdateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	file, err := h.service.Update(r.Context(), userID, id, req.Name, req.FolderID)
	if err != nil {
		writeServiceError(w, r, err, "update file")
		return
	}

	file.URL = h.downloadURL(r, file.Path)
	writeJSON(w, http.StatusOK, file)
}

// Delete removes a file and its stored bytes
// @Summary Delete file
// @Tags files
// @Produce json
// @Security BearerAuth
// @Param id path string true "File ID"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /api/files/{id} [delete]
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "/api/files/")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		writeServiceError(w, r, err, "delete file")
		return
	}

	logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"file_id": id,
	}).Info("File deleted")
	writeJSON(w, http.StatusOK, models.SuccessResponse("File deleted successfully", nil))
}

// downloadURL builds the absolute /uploads URL for a stored blob using the
// host the client addressed.
func (h *FileHandler) downloadURL(r *http.Request, storedName string) string {
	u := url.URL{
		Scheme: requestScheme(r),
		Host:   r.Host,
		Path:   "/uploads/" + storedName,
	}
	if h.signer != nil {
		query, err := h.signer.Sign(storedName)
		if err != nil {
			logger.Error("Failed to sign download URL for %s: %v", storedName, err)
		} else {
			u.RawQuery = query
		}
	}
	return u.String()
}

func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
