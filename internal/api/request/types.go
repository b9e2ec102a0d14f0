package request

// CreateViewerRequest is the request body for opening a viewer
type CreateViewerRequest struct {
	MediaID string `json:"media_id"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateAccountRequest is the request body for signing up
type CreateAccountRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}
