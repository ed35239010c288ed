package app

import (
	"strings"

	"csv-quiz-service/internal/domain"
	"golang.org/x/text/cases"
)

// DefaultDenylist holds the substrings a nickname may not contain.
var DefaultDenylist = []string{"你娘", "幹", "媽的", "靠北", "賤", "去你的", "fuck", "操"}

// ValidateNickname trims raw and rejects it when empty or when it contains any
// denylist entry, compared case-insensitively as plain substrings.
func ValidateNickname(raw string, denylist []string) (string, error) {
	nickname := strings.TrimSpace(raw)
	if nickname == "" {
		return "", domain.ErrInvalidNickname
	}

	fold := cases.Fold()
	folded := fold.String(nickname)
	for _, bad := range denylist {
		if bad == "" {
			continue
		}
		if strings.Contains(folded, fold.String(bad)) {
			return "", domain.ErrInvalidNickname
		}
	}
	return nickname, nil
}
