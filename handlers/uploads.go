package handlers

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"filevault/logger"
	"filevault/storage"
	"filevault/utils"
)

// UploadsHandler streams stored blobs under /uploads/. When signer is set,
// every request must carry a valid signature produced by the file API.
type UploadsHandler struct {
	blobs  storage.BlobStore
	signer *utils.URLSigner
}

// NewUploadsHandler creates an UploadsHandler.
func NewUploadsHandler(blobs storage.BlobStore, signer *utils.URLSigner) *UploadsHandler {
	return &UploadsHandler{blobs: blobs, signer: signer}
}

// Serve handles GET and HEAD /uploads/{storedName}.
func (h *UploadsHandler) Serve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/uploads/")

	if h.signer != nil {
		if err := h.signer.Verify(name, r.URL.Query()); err != nil {
			logger.WithFields(map[string]interface{}{
				"path":  name,
				"error": err.Error(),
			}).Warn("Rejected unsigned or expired download")
			writeError(w, http.StatusForbidden, "Invalid or expired download link")
			return
		}
	}

	f, err := h.blobs.Open(name)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidName) || errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		logger.Error("Failed to open blob %s: %v", name, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil || !stat.Mode().IsRegular() {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	http.ServeContent(w, r, name, stat.ModTime(), f)
}
