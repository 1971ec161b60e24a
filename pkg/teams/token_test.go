package teams

import (
	"strings"
	"testing"
)

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateToken(inviteTokenLen)
		if err != nil {
			t.Fatalf("GenerateToken failed: %v", err)
		}
		if len(token) < inviteTokenLen {
			t.Fatalf("token %q shorter than %d bytes of entropy", token, inviteTokenLen)
		}
		if strings.ContainsAny(token, "+/=") {
			t.Errorf("token %q is not URL-safe", token)
		}
		if seen[token] {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = true
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("some-token")
	b := HashToken("some-token")
	c := HashToken("other-token")

	if a != b {
		t.Error("HashToken is not deterministic")
	}
	if a == c {
		t.Error("distinct tokens hash equal")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}
