package auth

import (
	"errors"
	"testing"

	"github.com/bazaar-market/apiserver/types"
)

func intPtr(v int) *int { return &v }

func TestCheckOwnership(t *testing.T) {
	tests := []struct {
		name    string
		actor   *types.Claims
		ownerID *int
		want    error
	}{
		{"no identity", nil, intPtr(5), ErrUnauthorized},
		{"mismatched identity", &types.Claims{UserID: 7}, intPtr(5), ErrForbidden},
		{"owner", &types.Claims{UserID: 5}, intPtr(5), nil},
		{"admin override", &types.Claims{UserID: 7, IsAdmin: true}, intPtr(5), nil},
		{"anonymous row, non-admin", &types.Claims{UserID: 7}, nil, ErrForbidden},
		{"anonymous row, admin", &types.Claims{UserID: 7, IsAdmin: true}, nil, nil},
		{"anonymous row, no identity", nil, nil, ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOwnership(tt.actor, tt.ownerID)
			if !errors.Is(err, tt.want) {
				t.Fatalf("CheckOwnership = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCheckAdmin(t *testing.T) {
	if err := CheckAdmin(nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("nil actor: got %v, want ErrUnauthorized", err)
	}
	if err := CheckAdmin(&types.Claims{UserID: 1}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin: got %v, want ErrForbidden", err)
	}
	if err := CheckAdmin(&types.Claims{UserID: 1, IsAdmin: true}); err != nil {
		t.Fatalf("admin: got %v, want nil", err)
	}
}

func TestCheckSelfOrAdmin(t *testing.T) {
	if err := CheckSelfOrAdmin(nil, 3); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("nil actor: got %v, want ErrUnauthorized", err)
	}
	if err := CheckSelfOrAdmin(&types.Claims{UserID: 4}, 3); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other user: got %v, want ErrForbidden", err)
	}
	if err := CheckSelfOrAdmin(&types.Claims{UserID: 3}, 3); err != nil {
		t.Fatalf("self: got %v, want nil", err)
	}
	if err := CheckSelfOrAdmin(&types.Claims{UserID: 4, IsAdmin: true}, 3); err != nil {
		t.Fatalf("admin: got %v, want nil", err)
	}
}
