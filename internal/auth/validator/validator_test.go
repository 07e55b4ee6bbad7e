package validator

import (
	"testing"

	"leadlift_backend/platform/validator"
)

func TestIsStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"Secret123":  true,
		"secret123":  false,
		"SECRET123":  false,
		"SecretPass": false,
		"Sh0rt":      false,
		"Ünïcode9a":  true,
	}
	for pw, want := range cases {
		if got := IsStrongPassword(pw); got != want {
			t.Fatalf("%q: expected %v, got %v", pw, want, got)
		}
	}
}

func TestRegisterAddsTag(t *testing.T) {
	val := validator.New()
	if err := Register(val); err != nil {
		t.Fatalf("register: %v", err)
	}

	type req struct {
		Password string `json:"password" validate:"required,strongpassword"`
	}
	if err := val.Struct(req{Password: "weak"}); err == nil {
		t.Fatal("expected weak password to fail")
	}
	if err := val.Struct(req{Password: "Str0ngPass"}); err != nil {
		t.Fatalf("expected strong password to pass, got %v", err)
	}
}
