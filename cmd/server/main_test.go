package main

import (
	"testing"

	"mrchooks/backend/internal/config"
)

const strongSecret = "0123456789abcdef0123456789abcdef"

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	cases := map[string]config.Config{
		"short secret":        {AuthSecret: "short"},
		"common admin":        {AuthSecret: strongSecret, SeedAdminPassword: "admin123"},
		"short employee":      {AuthSecret: strongSecret, SeedEmployeePassword: "abc12"},
		"sequential employee": {AuthSecret: strongSecret, SeedEmployeePassword: "abcdefgh"},
		"repeated admin":      {AuthSecret: strongSecret, SeedAdminPassword: "zzzzzzzz"},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			if err := validateSecurityConfig(cfg); err == nil {
				t.Fatalf("expected weak security config to be rejected")
			}
		})
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{
		AuthSecret:           strongSecret,
		SeedAdminPassword:    "roast-chicken-739",
		SeedEmployeePassword: "liempo-Counter-41",
	})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestValidateSecurityConfigAllowsSkippedSeeds(t *testing.T) {
	if err := validateSecurityConfig(config.Config{AuthSecret: strongSecret}); err != nil {
		t.Fatalf("expected blank seed passwords to be allowed, got %v", err)
	}
}
