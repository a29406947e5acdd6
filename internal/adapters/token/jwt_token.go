// Package token implements the JWT Signer/Verifier component (D), grounded
// on IANDYI-care-service's auth_middleware.go claim shape and
// suleymanmyradov-growth-server's auth.go issue/parse split, generalized to
// issue linked access+refresh pairs sharing one jti.
package token

import (
	"errors"
	"time"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/golang-jwt/jwt/v5"
)

type JWTIssuer struct {
	secret   []byte
	issuer   string
	audience string
}

func New(secret, issuer, audience string) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), issuer: issuer, audience: audience}
}

type claims struct {
	Typ   string         `json:"typ"`
	JTI   string         `json:"jti"`
	Extra map[string]any `json:"extra,omitempty"`
	jwt.RegisteredClaims
}

func (i *JWTIssuer) sign(sub, typ string, ttl time.Duration, jti string, extra map[string]any) (string, error) {
	now := time.Now()
	c := claims{
		Typ:   typ,
		JTI:   jti,
		Extra: extra,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString(i.secret)
}

// IssuePair mints an access token (typ=access) and a refresh token
// (typ=refresh) sharing jti, so revoking the refresh's jti implicitly marks
// every access token minted alongside it as suspect to callers that check.
func (i *JWTIssuer) IssuePair(sub string, accessTTL, refreshTTL time.Duration, jti string, extra map[string]any) (string, string, int64, error) {
	access, err := i.sign(sub, string(domain.TokenAccess), accessTTL, jti, extra)
	if err != nil {
		return "", "", 0, err
	}
	refresh, err := i.sign(sub, string(domain.TokenRefresh), refreshTTL, jti, nil)
	if err != nil {
		return "", "", 0, err
	}
	return access, refresh, int64(refreshTTL.Seconds()), nil
}

func (i *JWTIssuer) Verify(token string) (domain.TokenClaims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("token: unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithIssuer(i.issuer), jwt.WithAudience(i.audience))
	if err != nil {
		return domain.TokenClaims{}, err
	}
	if !parsed.Valid {
		return domain.TokenClaims{}, errors.New("token: invalid")
	}

	iat, _ := c.GetIssuedAt()
	exp, _ := c.GetExpiresAt()
	out := domain.TokenClaims{
		Subject:  c.Subject,
		Type:     domain.TokenType(c.Typ),
		JTI:      c.JTI,
		Issuer:   c.Issuer,
		Audience: i.audience,
		Extra:    c.Extra,
	}
	if iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
