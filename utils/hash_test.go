package utils

import "testing"

func TestRequestSignature(t *testing.T) {
	base := RequestSignature("GET", "/api/products", nil)

	if len(base) != 64 {
		t.Errorf("Expected a 64 character hex digest, got %d", len(base))
	}
	if again := RequestSignature("GET", "/api/products", nil); again != base {
		t.Error("Same request must produce the same signature")
	}

	tests := []struct {
		name     string
		method   string
		endpoint string
		body     []byte
	}{
		{"DifferentMethod", "POST", "/api/products", nil},
		{"DifferentEndpoint", "GET", "/api/products/v1", nil},
		{"WithBody", "GET", "/api/products", []byte(`{"q":"villa"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequestSignature(tt.method, tt.endpoint, tt.body); got == base {
				t.Error("Distinct requests must not collide")
			}
		})
	}
}

func TestRequestSignatureSeparatesFields(t *testing.T) {
	// "GET" + "/x" must not equal "GE" + "T/x".
	a := RequestSignature("GET", "/x", nil)
	b := RequestSignature("GE", "T/x", nil)
	if a == b {
		t.Error("Field boundaries must be part of the signature")
	}
}
