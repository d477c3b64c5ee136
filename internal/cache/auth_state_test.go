package cache

import (
	"context"
	"testing"
	"time"

	"github.com/printroll-next/internal/models"
)

func TestTokenGateAccepts(t *testing.T) {
	invalidBefore := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gate := BuildUserAuthState(&models.User{
		ID:                 4,
		TokenVersion:       3,
		TokenInvalidBefore: &invalidBefore,
	}).TokenGate

	before := invalidBefore.Add(-time.Minute)
	after := invalidBefore.Add(time.Minute)
	cases := []struct {
		name     string
		version  uint64
		issuedAt *time.Time
		want     bool
	}{
		{name: "current", version: 3, issuedAt: &after, want: true},
		{name: "same second", version: 3, issuedAt: &invalidBefore, want: true},
		{name: "issued before revoke", version: 3, issuedAt: &before, want: false},
		{name: "stale version", version: 2, issuedAt: &after, want: false},
		{name: "missing iat", version: 3, issuedAt: nil, want: false},
	}
	for _, tc := range cases {
		if got := gate.Accepts(tc.version, tc.issuedAt); got != tc.want {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, got)
		}
	}

	open := BuildAdminAuthState(&models.Admin{ID: 1, TokenVersion: 0}).TokenGate
	if !open.Accepts(0, nil) {
		t.Fatalf("gate without invalid_before should accept token without iat")
	}
}

func TestAuthStateDisabledCache(t *testing.T) {
	ctx := context.Background()
	state, hit, err := GetAdminAuthState(ctx, 1)
	if err != nil || hit || state != nil {
		t.Fatalf("disabled cache should miss, got state=%v hit=%v err=%v", state, hit, err)
	}
	if err := SetUserAuthState(ctx, BuildUserAuthState(&models.User{ID: 2})); err != nil {
		t.Fatalf("set on disabled cache should be no-op, got %v", err)
	}
	if _, hit, _ := GetUserAuthState(ctx, 0); hit {
		t.Fatalf("zero id should never hit")
	}
}
