package models

// User is the profile returned by GET /me.
type User struct {
	ID         ID       `json:"id"`
	Email      string   `json:"email"`
	Username   string   `json:"username,omitempty"`
	FullName   string   `json:"full_name"`
	Phone      string   `json:"phone"`
	Location   string   `json:"location,omitempty"`
	Latitude   *float64 `json:"lat,omitempty"`
	Longitude  *float64 `json:"long,omitempty"`
	IsProvider bool     `json:"is_provider"`
	IsAdmin    bool     `json:"is_admin"`
}

// TokenPair is the body of /auth/login and /auth/refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}
