package password

import (
	"strings"
	"testing"
)

func testConfig() Config {
	return Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashProducesDistinctDigests(t *testing.T) {
	hasher, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	first, err := hasher.Hash("Correct-Horse-1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	second, err := hasher.Hash("Correct-Horse-1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if first == second {
		t.Fatal("expected distinct digests for the same plaintext")
	}
	if !hasher.Verify("Correct-Horse-1", first) {
		t.Fatal("first digest did not verify")
	}
	if !hasher.Verify("Correct-Horse-1", second) {
		t.Fatal("second digest did not verify")
	}
}

func TestVerifyRejectsWrongPassword(t *testing.T) {
	hasher, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	digest, err := hasher.Hash("Correct-Horse-1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	if hasher.Verify("wrong-horse-1", digest) {
		t.Fatal("expected mismatch for wrong password")
	}
}

func TestVerifyMalformedDigestIsNonMatch(t *testing.T) {
	hasher, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	cases := []string{
		"",
		"not-a-digest",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$!!!",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA",
	}

	for _, digest := range cases {
		if hasher.Verify("Correct-Horse-1", digest) {
			t.Fatalf("malformed digest verified: %q", digest)
		}
	}
}

func TestDigestFormat(t *testing.T) {
	hasher, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	digest, err := hasher.Hash("Correct-Horse-1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(digest, "$argon2id$v=") {
		t.Fatalf("unexpected digest prefix: %q", digest)
	}
}

func TestNeedsUpgrade(t *testing.T) {
	weak, err := NewArgon2(testConfig())
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	digest, err := weak.Hash("Correct-Horse-1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	same, err := weak.NeedsUpgrade(digest)
	if err != nil {
		t.Fatalf("NeedsUpgrade failed: %v", err)
	}
	if same {
		t.Fatal("digest at current parameters should not need upgrade")
	}

	strongCfg := testConfig()
	strongCfg.Memory = 64 * 1024
	strong, err := NewArgon2(strongCfg)
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}

	upgrade, err := strong.NeedsUpgrade(digest)
	if err != nil {
		t.Fatalf("NeedsUpgrade failed: %v", err)
	}
	if !upgrade {
		t.Fatal("expected upgrade for weaker stored parameters")
	}

	if _, err := strong.NeedsUpgrade("garbage"); err == nil {
		t.Fatal("expected error for malformed digest")
	}
}

func TestNewArgon2RejectsWeakConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Memory = 1024
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected error for memory below floor")
	}

	cfg = testConfig()
	cfg.SaltLength = 8
	if _, err := NewArgon2(cfg); err == nil {
		t.Fatal("expected error for short salt")
	}
}
