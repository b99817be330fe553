package domain

// ============================================================
// Auth: Request / Response types (remote API contract)
// ============================================================

// LoginRequest is the body for the password login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest carries a Google ID-token credential.
type GoogleLoginRequest struct {
	Credential string `json:"credential"`
}

// LoginResponse is the body returned by both login endpoints.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

// RegisterRequest is the body for the register endpoint.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// RegisterResponse is the body returned by register. AccessToken is only
// set when the remote confirms the registration with a session.
type RegisterResponse struct {
	Message     string `json:"message,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
}

// ForgotPasswordRequest asks the remote API to email a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes a reset with the emailed token.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// MessageResponse is a generic acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginResult is what the client reports after a login attempt.
type LoginResult struct {
	Session SessionState `json:"session"`
}

// RegisterResult is what the client reports after registration.
type RegisterResult struct {
	Message          string       `json:"message"`
	Session          SessionState `json:"session"`
	PasswordScore    int          `json:"passwordScore"`
	PasswordStrength string       `json:"passwordStrength"`
}
