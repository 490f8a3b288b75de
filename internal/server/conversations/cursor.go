package conversations

import (
	"encoding/base64"
	"encoding/json"

	"github.com/systemshift/unreplied/internal/server/graph"
)

// EncodeCursor turns the last scanned root into an opaque token.
func EncodeCursor(key graph.RootKey) string {
	data, _ := json.Marshal(key)
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses a token from EncodeCursor. An empty token means the
// first page and decodes to nil.
func DecodeCursor(token string) (*graph.RootKey, error) {
	if token == "" {
		return nil, nil
	}

	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, &ValidationError{Field: "cursor", Reason: "not a valid token"}
	}

	var key graph.RootKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, &ValidationError{Field: "cursor", Reason: "not a valid token"}
	}
	if key.Hash == "" || key.Timestamp.IsZero() {
		return nil, &ValidationError{Field: "cursor", Reason: "incomplete position"}
	}
	return &key, nil
}
