package sharelink

import (
	"strings"
	"testing"
)

func TestGenerateCode_InvalidLength(t *testing.T) {
	t.Parallel()

	if _, err := GenerateCode(0); err == nil {
		t.Fatalf("expected error for invalid length")
	}
}

func TestGenerateCode_LengthAndAlphabet(t *testing.T) {
	t.Parallel()

	code, err := GenerateCode(CodeLength)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(code) != CodeLength {
		t.Fatalf("expected code length %d, got %d", CodeLength, len(code))
	}

	for i := 0; i < len(code); i++ {
		if strings.IndexByte(alphabet, code[i]) == -1 {
			t.Fatalf("code contains invalid character %q", code[i])
		}
	}
}

func TestGenerateCode_UniqueWithinSmallBatch(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})

	for i := 0; i < 100; i++ {
		code, err := GenerateCode(CodeLength)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code generated within small batch: %s", code)
		}
		seen[code] = struct{}{}
	}
}
