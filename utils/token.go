package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CreateToken returns an opaque single-use token: a random UUID in its
// 32-character hex form.
func CreateToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}
