package models

// APIResponse is the envelope for messages and errors. Resource payloads
// (files, folders) are written bare.
type APIResponse struct {
	Status  string      `json:"status"` // success, error
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SuccessResponse builds a success envelope.
func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}

// ErrorResponse builds an error envelope. err is echoed for diagnosis when set.
func ErrorResponse(message string, err error) APIResponse {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	return APIResponse{
		Status:  "error",
		Message: message,
		Error:   errMsg,
	}
}

// ClientConfig is served to the browser client at /config.json.
type ClientConfig struct {
	APIBaseURL string `json:"apiBaseUrl"`
}
