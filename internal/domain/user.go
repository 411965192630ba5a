package domain

import (
	"regexp"
	"strings"
	"time"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	Profile      *Profile  `json:"profile"`
}

type Profile struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

// UserInfo is the public shape of a user returned by /auth routes.
type UserInfo struct {
	ID      string   `json:"id"`
	Email   string   `json:"email"`
	Profile *Profile `json:"profile"`
}

func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{ID: u.ID, Email: u.Email, Profile: u.Profile}
}

// DisplayName falls back to the email when no profile name is set.
func (u *User) DisplayName() string {
	if u.Profile != nil && u.Profile.Name != nil && *u.Profile.Name != "" {
		return *u.Profile.Name
	}
	return u.Email
}

const MinPasswordLength = 6

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
}

func (r *RegisterRequest) Validate() error {
	if r.Email == "" {
		return Invalid("email is required")
	}
	if !isValidEmail(r.Email) {
		return Invalid("invalid email format")
	}
	if len(r.Password) < MinPasswordLength {
		return Invalid("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return Invalid("email and password are required")
	}
	return nil
}

type ProfileUpdateRequest struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

func (r *ProfileUpdateRequest) Normalize() {
	if r.Name != nil {
		s := strings.TrimSpace(*r.Name)
		r.Name = &s
	}
	if r.Bio != nil {
		s := strings.TrimSpace(*r.Bio)
		r.Bio = &s
	}
}

// Session is the token pair issued on login.
type Session struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
