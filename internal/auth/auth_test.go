package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gwi.com/journal-companion/internal/config"
)

func TestJWTRoundTrip(t *testing.T) {
	config.AppConfig = config.Config{JWTSecret: "s3cret", JWTTTL: time.Hour}

	token, err := GenerateJWT("user-1")
	if err != nil {
		t.Fatalf("GenerateJWT() error = %v", err)
	}
	sub, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT() error = %v", err)
	}
	if sub != "user-1" {
		t.Errorf("subject = %q, want user-1", sub)
	}

	config.AppConfig.JWTSecret = "rotated"
	if _, err := ValidateJWT(token); err == nil {
		t.Error("token signed with the old secret was accepted")
	}
}

func TestValidateJWTRejects(t *testing.T) {
	config.AppConfig = config.Config{JWTSecret: "s3cret"}
	sign := func(claims jwt.MapClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
		if err != nil {
			t.Fatal(err)
		}
		return s
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"expired", sign(jwt.MapClaims{"sub": "u", "exp": time.Now().Add(-time.Minute).Unix()})},
		{"no subject", sign(jwt.MapClaims{"exp": time.Now().Add(time.Minute).Unix()})},
		{"unsigned", func() string {
			s, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
			return s
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateJWT(tt.token); err == nil {
				t.Error("ValidateJWT() accepted the token")
			}
		})
	}
}

func TestUserContext(t *testing.T) {
	if _, err := UserFromContext(context.Background()); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("empty context error = %v", err)
	}
	if err := (UserContext{}).Validate(); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("Validate() error = %v", err)
	}

	ctx := WithUser(context.Background(), UserContext{UserID: "u1", Email: "a@b.c"})
	u, err := UserFromContext(ctx)
	if err != nil || u.UserID != "u1" || u.Email != "a@b.c" {
		t.Errorf("UserFromContext() = %+v, %v", u, err)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !CheckPasswordHash("hunter22", hash) {
		t.Error("correct password rejected")
	}
	if CheckPasswordHash("hunter23", hash) {
		t.Error("wrong password accepted")
	}
}
