package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// DefaultTokenTTL bounds how long an admission token can be used to join.
const DefaultTokenTTL = 2 * time.Hour

var ErrInvalidToken = errors.New("invalid session token")

// Admission is what a verified token grants: one seat in one session.
type Admission struct {
	SessionID   string
	Participant string
	Seat        int
}

// TokenService issues and verifies the tokens guests present when joining a hosted session.
type TokenService struct {
	secret string
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret, issuer string) *TokenService {
	return &TokenService{
		secret: secret,
		issuer: issuer,
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
}

// Issue signs an admission for participant to take seat in session.
func (s *TokenService) Issue(a Admission) (string, error) {
	if s == nil {
		return "", fmt.Errorf("token service is nil")
	}
	if s.secret == "" || s.issuer == "" {
		return "", fmt.Errorf("token service config is incomplete")
	}
	if a.SessionID == "" || a.Participant == "" {
		return "", fmt.Errorf("session and participant are required")
	}
	if a.Seat < 0 {
		return "", fmt.Errorf("seat %d out of range", a.Seat)
	}

	claims := jwt.MapClaims{
		"iss":  s.issuer,
		"sub":  a.Participant,
		"sid":  a.SessionID,
		"seat": a.Seat,
		"iat":  s.now().Unix(),
		"exp":  s.now().Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify checks signature, issuer and expiry of tokenString and returns its admission.
func (s *TokenService) Verify(tokenString string) (Admission, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return Admission{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Admission{}, ErrInvalidToken
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return Admission{}, fmt.Errorf("%w: issuer", ErrInvalidToken)
	}

	return admissionFromClaims(claims)
}

// PeekAdmission reads the admission of tokenString without checking its
// signature. Guests use it to learn their seat; the host still verifies on join.
func PeekAdmission(tokenString string) (Admission, error) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return Admission{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return admissionFromClaims(claims)
}

func admissionFromClaims(claims jwt.MapClaims) (Admission, error) {
	sid, _ := claims["sid"].(string)
	sub, _ := claims["sub"].(string)
	seat, ok := claims["seat"].(float64)
	if sid == "" || sub == "" || !ok {
		return Admission{}, fmt.Errorf("%w: missing claims", ErrInvalidToken)
	}
	return Admission{SessionID: sid, Participant: sub, Seat: int(seat)}, nil
}
