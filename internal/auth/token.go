package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/trove-market/trove/internal/roles"
	"github.com/trove-market/trove/internal/shared"
)

// Token purposes. Access tokens carry the regular identity claims; a
// password-update token is only good for changing the holder's password.
const (
	PurposeAccess         = "access"
	PurposePasswordUpdate = "pass_update"
)

type tokenClaims struct {
	Username string `json:"name"`
	Role     string `json:"role,omitempty"`
	Purpose  string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies the opaque bearer credentials binding
// user id, display name and role.
type TokenManager struct {
	secret    []byte
	accessTTL time.Duration
	resetTTL  time.Duration
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(secret string, accessTTL, resetTTL time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth: token secret must not be empty")
	}
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	if resetTTL <= 0 {
		resetTTL = 3 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), accessTTL: accessTTL, resetTTL: resetTTL}, nil
}

// IssueAccess signs an access token for the user.
func (m *TokenManager) IssueAccess(userID int64, username string, role roles.Role) (string, error) {
	return m.sign(userID, username, string(role), PurposeAccess, m.accessTTL)
}

// IssuePasswordUpdate signs a short-lived token only valid for the
// password change endpoint.
func (m *TokenManager) IssuePasswordUpdate(userID int64, username string) (string, error) {
	return m.sign(userID, username, "", PurposePasswordUpdate, m.resetTTL)
}

func (m *TokenManager) sign(userID int64, username, role, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Username: username,
		Role:     role,
		Purpose:  purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify validates the signature and expiry of a token and returns the
// identity claims it binds. The purpose must match.
func (m *TokenManager) Verify(tokenString, purpose string) (*shared.Claims, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, shared.ErrInvalidCredentials
	}
	if claims.Purpose != purpose {
		return nil, shared.ErrInvalidCredentials
	}
	var userID int64
	if _, err := fmt.Sscanf(claims.Subject, "%d", &userID); err != nil || userID <= 0 {
		return nil, shared.ErrInvalidCredentials
	}
	out := &shared.Claims{UserID: userID, Username: claims.Username}
	if purpose == PurposeAccess {
		role, ok := roles.Parse(claims.Role)
		if !ok {
			return nil, shared.ErrInvalidCredentials
		}
		out.Role = role
	}
	return out, nil
}
