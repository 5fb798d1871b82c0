package instrumentation

import "testing"

func TestExtractEmailDomain(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"jane@example.com", "example.com"},
		{"oficina@subdomain.example.com", "subdomain.example.com"},
		{"invalid", "unknown"},
		{"", "unknown"},
		{"@", "unknown"},
		{"user@", "unknown"},
		{"@domain.com", "domain.com"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			result := ExtractEmailDomain(tt.email)
			if result != tt.expected {
				t.Errorf("ExtractEmailDomain(%q) = %q, want %q", tt.email, result, tt.expected)
			}
		})
	}
}
