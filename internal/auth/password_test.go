package auth

import "testing"

func TestPasswordPolicyValidate(t *testing.T) {
	policy := NewPasswordPolicy(4)

	tests := []struct {
		name     string
		password string
		reasons  int
	}{
		{"valid", "Passw0rd", 0},
		{"valid long", "Sandra123!", 0},
		{"too short but otherwise fine", "Pa5s", 1},
		{"missing digit", "Password", 1},
		{"missing uppercase", "passw0rd", 1},
		{"missing lowercase", "PASSW0RD", 1},
		{"short and missing digit", "Pass", 2},
		{"everything wrong", "", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reasons := policy.Validate(tt.password)
			if len(reasons) != tt.reasons {
				t.Fatalf("Validate(%q) returned %d reasons %v, want %d", tt.password, len(reasons), reasons, tt.reasons)
			}
		})
	}
}

func TestPasswordPolicyValidateCollectsAllReasons(t *testing.T) {
	policy := NewPasswordPolicy(4)

	reasons := policy.Validate("abc")
	if len(reasons) != 3 {
		t.Fatalf("expected 3 reasons, got %v", reasons)
	}
}

func TestPasswordPolicyHashAndVerify(t *testing.T) {
	policy := NewPasswordPolicy(4)

	digest, err := policy.Hash("Passw0rd")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if digest == "Passw0rd" {
		t.Fatal("digest must not equal the plaintext password")
	}

	if !policy.Verify("Passw0rd", digest) {
		t.Fatal("Verify rejected the original password")
	}
	if policy.Verify("WrongPass1", digest) {
		t.Fatal("Verify accepted a different password")
	}
}

func TestNewPasswordPolicyRejectsBadCost(t *testing.T) {
	policy := NewPasswordPolicy(1000)
	if policy.cost != DefaultBcryptCost {
		t.Fatalf("expected fallback to cost %d, got %d", DefaultBcryptCost, policy.cost)
	}
}
