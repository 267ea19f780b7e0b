package services

import (
	"fmt"

	"github.com/yukikurage/secure-task-api/internal/utils"
)

// idBytes gives identifiers of 16 hex characters.
const idBytes = 8

type idGenerator func() (string, error)

func randomID() (string, error) {
	return utils.GenerateToken(idBytes)
}

// uniqueID draws identifiers until exists reports a free one, giving up
// after maxAttempts draws.
func uniqueID(generate idGenerator, exists func(string) (bool, error), maxAttempts int) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		id, err := generate()
		if err != nil {
			return "", err
		}

		taken, err := exists(id)
		if err != nil {
			return "", fmt.Errorf("failed to check identifier: %w", err)
		}
		if !taken {
			return id, nil
		}
	}
	return "", ErrIDSpaceExhausted
}
