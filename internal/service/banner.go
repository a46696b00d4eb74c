package service

import (
	"errors"
	"fmt"
	"strings"

	"battle-tracker/internal/snapshot"
)

// Banner is the status line shown over the last good data after a failed read.
func Banner(err error) string {
	if err == nil {
		return ""
	}

	msg := "unknown error"
	var readErr *snapshot.ReadError
	if errors.As(err, &readErr) {
		msg = strings.TrimSpace(readErr.Message())
	}

	switch snapshot.KindOf(err) {
	case snapshot.KindNotFound:
		return "Stats file not found. Showing last good data."
	case snapshot.KindParseFailed:
		return fmt.Sprintf("Parse failed: %s. Showing last good data.", msg)
	case snapshot.KindIOFailed:
		return fmt.Sprintf("Read failed: %s. Showing last good data.", msg)
	default:
		return "Read error; showing last good data."
	}
}
