package app

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", "scrabble-host")
	want := Admission{SessionID: "s-1", Participant: "guest-7", Seat: 2}

	tokenString, err := svc.Issue(want)
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}

	claims := parseClaims(t, tokenString, "test-secret")
	if got := stringClaim(t, claims, "sub"); got != want.Participant {
		t.Fatalf("sub = %s, want %s", got, want.Participant)
	}
	if got := stringClaim(t, claims, "iss"); got != "scrabble-host" {
		t.Fatalf("iss = %s", got)
	}

	got, err := svc.Verify(tokenString)
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}
	if got != want {
		t.Fatalf("admission = %+v, want %+v", got, want)
	}
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService("test-secret", "scrabble-host")
	valid, err := svc.Issue(Admission{SessionID: "s-1", Participant: "guest", Seat: 1})
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}

	expired := NewTokenService("test-secret", "scrabble-host")
	expired.now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	old, _ := expired.Issue(Admission{SessionID: "s-1", Participant: "guest", Seat: 1})

	otherIssuer, _ := NewTokenService("test-secret", "elsewhere").Issue(Admission{SessionID: "s-1", Participant: "guest", Seat: 1})
	otherSecret, _ := NewTokenService("other-secret", "scrabble-host").Issue(Admission{SessionID: "s-1", Participant: "guest", Seat: 1})

	tests := []struct {
		name  string
		token string
	}{
		{"Garbage", "not-a-token"},
		{"Tampered", valid + "x"},
		{"Expired", old},
		{"WrongIssuer", otherIssuer},
		{"WrongSecret", otherSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("Verify error = %v, want %v", err, ErrInvalidToken)
			}
		})
	}
}

func TestTokenServiceIssueRequiresConfig(t *testing.T) {
	if _, err := NewTokenService("", "issuer").Issue(Admission{SessionID: "s", Participant: "p"}); err == nil {
		t.Fatal("expected error for missing secret")
	}
	if _, err := NewTokenService("secret", "issuer").Issue(Admission{Participant: "p"}); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func parseClaims(t *testing.T, tokenString, secret string) jwt.MapClaims {
	t.Helper()

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		t.Fatalf("parse token error: %v", err)
	}
	if !token.Valid {
		t.Fatal("token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("claims are not map claims")
	}
	return claims
}

func stringClaim(t *testing.T, claims jwt.MapClaims, name string) string {
	t.Helper()
	value, ok := claims[name]
	if !ok {
		t.Fatalf("missing %s claim", name)
	}
	str, ok := value.(string)
	if !ok {
		t.Fatalf("%s claim is not a string", name)
	}
	return str
}

func TestPeekAdmission(t *testing.T) {
	want := Admission{SessionID: "s1", Participant: "p1", Seat: 2}
	token, err := NewTokenService("secret", "issuer").Issue(want)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := PeekAdmission(token)
	if err != nil {
		t.Fatalf("PeekAdmission: %v", err)
	}
	if got != want {
		t.Fatalf("admission = %+v, want %+v", got, want)
	}
	if _, err := PeekAdmission("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage error = %v, want %v", err, ErrInvalidToken)
	}
}
