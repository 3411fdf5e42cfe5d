// Package ticket derives verifiable ticket tokens from registration ids.
// A token is a capability, not a stored secret: it is an HS256-signed JWT
// carrying the registration id, regenerable at any time, and always
// re-validated against live ledger state before a scan is honored.
package ticket

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// ErrMalformed is returned when a presented token cannot be parsed or fails
// signature verification.
var ErrMalformed = errors.New("malformed ticket token")

// Issuer signs and resolves ticket tokens.
type Issuer struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

// NewIssuer constructs an Issuer with the given HMAC signing key.
func NewIssuer(signingKey, issuer string) *Issuer {
	return &Issuer{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		now:        time.Now,
	}
}

// Encode signs a token scoped to one registration. The token carries the
// registration id as subject plus the issuance timestamp.
func (i *Issuer) Encode(registrationID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  registrationID,
		Issuer:   i.issuer,
		IssuedAt: jwt.NewNumericDate(i.now()),
		ID:       uuid.NewString(),
	})
	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign ticket token: %w", err)
	}
	return signed, nil
}

// Decode verifies a token and returns the registration id it is scoped to.
// Returns ErrMalformed on any parse or signature failure.
func (i *Issuer) Decode(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return i.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrMalformed
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrMalformed
	}
	return claims.Subject, nil
}

// QRPNG renders a token as a PNG QR symbol of the given edge size in pixels.
func (i *Issuer) QRPNG(tokenString string, size int) ([]byte, error) {
	png, err := qrcode.Encode(tokenString, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
