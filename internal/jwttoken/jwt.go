package jwttoken

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "spamstopper/pkg/domain"
	dErrors "spamstopper/pkg/domain-errors"
	"spamstopper/pkg/requestcontext"
)

// AccessTokenClaims represents the JWT claims for dashboard access tokens.
type AccessTokenClaims struct {
	SubscriberID string `json:"subscriber_id"`
	Email        string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
}

func NewJWTService(signingKey string, issuer string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		tokenTTL:   tokenTTL,
	}
}

// GenerateAccessToken issues a signed token for the subscriber.
func (s *JWTService) GenerateAccessToken(ctx context.Context, subscriberID id.SubscriberID, email string) (string, error) {
	if subscriberID.IsNil() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "subscriber ID required")
	}
	now := requestcontext.Now(ctx)
	claims := AccessTokenClaims{
		SubscriberID: subscriberID.String(),
		Email:        email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subscriberID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign access token")
	}
	return signed, nil
}

// ValidateAccessToken parses and verifies a token, returning its claims.
func (s *JWTService) ValidateAccessToken(tokenString string) (*AccessTokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid access token")
	}

	claims, ok := parsed.Claims.(*AccessTokenClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.SubscriberID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token missing subscriber")
	}
	return claims, nil
}
