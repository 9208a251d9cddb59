package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campushub/campushub-core/internal/alerts"
)

const testSecret = "test-secret"

func signToken(t *testing.T, sub, role string, method jwt.SigningMethod) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestParseIdentity(t *testing.T) {
	v := NewVerifier(testSecret)
	raw := signToken(t, "stu-1", "learner", jwt.SigningMethodHS256)

	id, err := v.ParseIdentity("Bearer " + raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id.UserID != "stu-1" || id.Role != alerts.RoleLearner {
		t.Fatalf("identity: got %+v", id)
	}
}

func TestParseIdentityUnknownRoleIsObserver(t *testing.T) {
	v := NewVerifier(testSecret)
	id, err := v.ParseIdentity(signToken(t, "u9", "registrar", jwt.SigningMethodHS256))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if id.Role != alerts.RoleObserver {
		t.Fatalf("role: got %q, want observer", id.Role)
	}
}

func TestParseIdentityRejects(t *testing.T) {
	v := NewVerifier(testSecret)

	cases := map[string]string{
		"empty header": "",
		"bad token":    "Bearer not.a.token",
		"wrong secret": func() string {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"})
			s, _ := token.SignedString([]byte("other-secret"))
			return "Bearer " + s
		}(),
	}
	for name, header := range cases {
		if _, err := v.ParseIdentity(header); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%s: got %v, want ErrUnauthorized", name, err)
		}
	}
}

func TestUnconfiguredVerifierFailsClosed(t *testing.T) {
	v := NewVerifier("")
	_, err := v.ParseIdentity("Bearer " + signToken(t, "u1", "staff", jwt.SigningMethodHS256))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
}
