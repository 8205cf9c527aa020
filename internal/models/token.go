package models

// TokenTypeBearer is the only token type issued by the service.
const TokenTypeBearer = "Bearer"

// LoginResponse is returned by authenticate and refresh.
// RefreshToken is empty on refresh: the caller keeps the one it has.
// ExpiresAt is the number of seconds the access token remains valid.
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	CSRFToken    string `json:"csrfToken"`
	ExpiresAt    int64  `json:"expiresAt"`
	TokenType    string `json:"tokenType"`
}
