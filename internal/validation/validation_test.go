package validation

import (
	"testing"
)

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		addr  string
		valid bool
	}{
		{"ben-001", true},
		{"beneficiary_42", true},
		{"a1b2c3", true},
		{"org-northern-relief", true},

		// Invalid cases
		{"ab", false},             // Too short
		{"Beneficiary-1", false},  // Uppercase
		{"-leading-dash", false},  // Bad first char
		{"has space", false},
		{"", false},
	}

	for _, tc := range tests {
		result := IsValidAddress(tc.addr)
		if result != tc.valid {
			t.Errorf("IsValidAddress(%q) = %v, want %v", tc.addr, result, tc.valid)
		}
	}
}

func TestIsValidCategory(t *testing.T) {
	tests := []struct {
		cat   string
		valid bool
	}{
		{"food", true},
		{"medical_supplies", true},
		{"shelter-repair", true},

		{"f", false}, // Too short
		{"Food", false},
		{"", false},
	}

	for _, tc := range tests {
		result := IsValidCategory(tc.cat)
		if result != tc.valid {
			t.Errorf("IsValidCategory(%q) = %v, want %v", tc.cat, result, tc.valid)
		}
	}
}

func TestSanitizeAddress(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"ben-001", "ben-001"},
		{"BEN-001", "ben-001"},
		{"  ben-001  ", "ben-001"},
	}

	for _, tc := range tests {
		result := SanitizeAddress(tc.input)
		if result != tc.expected {
			t.Errorf("SanitizeAddress(%q) = %q, want %q", tc.input, result, tc.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	// Test valid input
	errors := Validate(
		Required("name", "John"),
		ValidAddress("sender", "ben-001"),
	)
	if len(errors) != 0 {
		t.Errorf("Expected no errors, got %v", errors)
	}

	// Test invalid input
	errors = Validate(
		Required("name", ""),
		ValidAddress("sender", "!!"),
	)
	if len(errors) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(errors))
	}
}

func TestValidAmount(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"1.00", true},
		{"0.50", true},
		{"100", true},
		{"0.000001", true},

		// Invalid
		{".50", false},
		{"1.", false},
		{"abc", false},
		{"-1.00", false},
		{"1.2.3", false},
		{"0.00", false},
	}

	for _, tc := range tests {
		err := ValidAmount("amount", tc.value)()
		valid := err == nil
		if valid != tc.valid {
			t.Errorf("ValidAmount(%q) valid=%v, want %v", tc.value, valid, tc.valid)
		}
	}
}
