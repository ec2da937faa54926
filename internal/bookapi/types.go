package bookapi

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// errorResponse covers both error body shapes the API has been seen to send.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
