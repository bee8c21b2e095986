package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateID returns a collision-resistant identifier such as "file_<uuid>".
func GenerateID(prefix string) string {
	id := uuid.NewString()
	if prefix != "" {
		return fmt.Sprintf("%s_%s", prefix, id)
	}
	return id
}
