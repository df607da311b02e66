package auth

import (
	"errors"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("secret")
	token, err := svc.GenerateToken(42, "alice", "admin")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 42 || claims.Username != "alice" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewJWTService("secret")
	token, _ := svc.GenerateToken(1, "bob", "viewer")

	if _, err := NewJWTService("other").ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: err = %v", err)
	}
	if _, err := svc.ValidateToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: err = %v", err)
	}

	expired := &JWTService{secret: []byte("secret"), ttl: -time.Minute}
	old, _ := expired.GenerateToken(1, "bob", "viewer")
	if _, err := svc.ValidateToken(old); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired: err = %v", err)
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword("hunter2", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("hunter3", hash) {
		t.Error("wrong password accepted")
	}
}

func TestCapabilitiesFor(t *testing.T) {
	tests := []struct {
		role string
		want Capabilities
	}{
		{RoleAdmin, Capabilities{RunPipeline: true, EditTracks: true, ManageSettings: true, ManageUsers: true}},
		{RoleEditor, Capabilities{RunPipeline: true, EditTracks: true}},
		{RoleViewer, Capabilities{RunPipeline: true}},
		{"guest", Capabilities{}},
	}
	for _, tt := range tests {
		if got := CapabilitiesFor(tt.role); got != tt.want {
			t.Errorf("CapabilitiesFor(%q) = %+v; want %+v", tt.role, got, tt.want)
		}
	}
}
