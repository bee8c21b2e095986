package handlers

import (
	"net/http"

	"filevault/identity"
	"filevault/middleware"
	"filevault/models"
)

// Routes bundles everything RegisterRoutes mounts.
type Routes struct {
	Folders   *FolderHandler
	Files     *FileHandler
	Uploads   *UploadsHandler
	Validator identity.Validator
	Client    models.ClientConfig

	// AllowedOrigins may make credentialed cross-origin calls.
	AllowedOrigins []string
}

// RegisterRoutes mounts the API, the blob download path and the public
// system endpoints on mux.
func RegisterRoutes(mux *http.ServeMux, rt Routes) {
	cors := middleware.CORSMiddleware(rt.AllowedOrigins)
	api := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.ChainMiddleware(h,
			middleware.LoggingMiddleware,
			middleware.RecoverMiddleware,
			cors,
			middleware.AuthMiddleware(rt.Validator),
			middleware.SetJSONHeader,
		)
	}
	public := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.ChainMiddleware(h,
			middleware.LoggingMiddleware,
			middleware.RecoverMiddleware,
			cors,
		)
	}

	mux.HandleFunc("/api/folders", api(rt.Folders.Collection))
	mux.HandleFunc("/api/folders/", api(rt.Folders.Item))

	mux.HandleFunc("/api/files", api(rt.Files.Collection))
	mux.HandleFunc("/api/files/upload", api(rt.Files.UploadRoute))
	mux.HandleFunc("/api/files/", api(rt.Files.Item))

	mux.HandleFunc("/uploads/", public(rt.Uploads.Serve))

	mux.HandleFunc("/health", public(Health))
	mux.HandleFunc("/config.json", public(ClientConfig(rt.Client)))
}
