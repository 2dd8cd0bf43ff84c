package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
)

// Claims represents the JWT claims for registry access tokens. The token
// carries only the caller identity; roles are always looked up live so a
// revoked role takes effect immediately.
type Claims struct {
	IdentityID string `json:"identity_id"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewService(signingKey string, issuer string, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateAccessToken mints an HS256 token for the identity.
func (s *Service) GenerateAccessToken(identityID domain.IdentityID, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		IdentityID: identityID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// ValidateToken verifies the signature and standard claims and returns the
// caller identity.
func (s *Service) ValidateToken(tokenString string) (domain.IdentityID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.IdentityID{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return domain.IdentityID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return domain.IdentityID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return domain.IdentityID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	callerID, err := domain.ParseIdentityID(claims.IdentityID)
	if err != nil {
		return domain.IdentityID{}, dErrors.New(dErrors.CodeUnauthorized, "invalid identity in token")
	}
	return callerID, nil
}
