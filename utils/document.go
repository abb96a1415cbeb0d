package utils

import (
	"bytes"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
)

var emptyDocument = datatypes.JSON(`{}`)

// ErrInvalidDocument is returned when a payload is not a JSON object.
var ErrInvalidDocument = errors.New("data must be a JSON object")

// ParseDocument validates an incoming payload and returns it compacted.
func ParseDocument(raw []byte) (datatypes.JSON, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, ErrInvalidDocument
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, ErrInvalidDocument
	}
	return datatypes.JSON(buf.Bytes()), nil
}

// SafeDocument returns stored as-is when it holds a JSON object and an empty
// object otherwise, so a malformed row never breaks a response.
func SafeDocument(stored datatypes.JSON) datatypes.JSON {
	doc, err := ParseDocument(stored)
	if err != nil {
		return emptyDocument
	}
	return doc
}
