package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"battle-tracker/internal/domain"
)

// ErrNullDocument is returned for a file whose entire content is the JSON literal null.
var ErrNullDocument = errors.New("snapshot document is null")

func Decode(data []byte) (*domain.Snapshot, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, ErrNullDocument
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// isParseError reports whether err came from bytes that are not (yet) a complete JSON
// document. A complete document of the wrong shape will not fix itself on a retry.
func isParseError(err error) bool {
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		return true
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return true
	}
	return false
}
