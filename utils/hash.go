package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// RequestSignature builds the deterministic cache key for an outbound
// request from its method, endpoint and body. Identical requests always
// map to the same key.
func RequestSignature(method, endpoint string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(endpoint))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
