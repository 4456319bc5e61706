package shared

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	t.Run("Format", func(t *testing.T) {
		hash, err := HashPassword("correct horse")
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}

		if !strings.HasPrefix(hash, "$2") {
			t.Errorf("expected a bcrypt digest, got %q", hash)
		}
		if strings.Contains(hash, "correct horse") {
			t.Error("hash must not contain the plaintext password")
		}
	})

	t.Run("SaltsDiffer", func(t *testing.T) {
		first, err := HashPassword("correct horse")
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
		second, err := HashPassword("correct horse")
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}

		if first == second {
			t.Error("expected distinct salts per hash")
		}
	})
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	if !CheckPassword(hash, "correct horse") {
		t.Error("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("expected mismatched password to fail")
	}
	if CheckPassword("not-a-bcrypt-digest", "anything") {
		t.Error("expected malformed stored value to fail")
	}
}

func TestGenerateID(t *testing.T) {
	first := GenerateID()
	second := GenerateID()

	if first == "" || second == "" {
		t.Fatal("expected non-empty ids")
	}
	if first == second {
		t.Error("expected unique ids")
	}
}

func TestMarshalJSON(t *testing.T) {
	data := map[string]int{"count": 3}

	compact, err := MarshalJSON(data, false)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if strings.Contains(string(compact), "\n") {
		t.Errorf("expected compact output, got %q", compact)
	}

	pretty, err := MarshalJSON(data, true)
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	if !strings.Contains(string(pretty), "\n") {
		t.Errorf("expected indented output, got %q", pretty)
	}
}
