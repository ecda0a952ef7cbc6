package security

import "testing"

func TestGenerateSecureToken(t *testing.T) {
	first, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("GenerateSecureToken: %v", err)
	}
	second, err := GenerateSecureToken(32)
	if err != nil {
		t.Fatalf("GenerateSecureToken: %v", err)
	}

	if first == second {
		t.Error("two generated tokens should differ")
	}
	if len(first) < 40 {
		t.Errorf("token %q shorter than expected for 32 bytes entropy", first)
	}
}

func TestHashTokenIsDeterministic(t *testing.T) {
	if HashToken("abc") != HashToken("abc") {
		t.Error("same input must hash identically")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Error("different inputs must hash differently")
	}
	if len(HashToken("abc")) != 64 {
		t.Error("hash should be a hex sha256 digest")
	}
}

func TestPasswordValidator(t *testing.T) {
	validator := DefaultPasswordValidator(8, 0)

	if err := validator.Validate("short"); err == nil {
		t.Error("short password should be rejected")
	}
	if err := validator.Validate("long enough password"); err != nil {
		t.Errorf("valid password rejected: %v", err)
	}
}

func TestStrengthRule(t *testing.T) {
	validator := DefaultPasswordValidator(8, 3)

	if err := validator.Validate("password"); err == nil {
		t.Error("guessable password should be rejected at min score 3")
	}
	if err := validator.Validate("kT9#mQ2$wXp7!vLz"); err != nil {
		t.Errorf("strong password rejected: %v", err)
	}
}
