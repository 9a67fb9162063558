package postservice

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Leopold1975/juicebox/internal/juicebox/domain/apperr"
)

// maxNameLength bounds titles and tag names, matching the VARCHAR columns.
const maxNameLength = 255

// NormalizeTags splits every entry on whitespace and returns the distinct
// non-empty names in first-seen order. Whitespace-only input yields no tags.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0, len(raw))

	for _, entry := range raw {
		for _, name := range strings.Fields(entry) {
			if _, ok := seen[name]; ok {
				continue
			}

			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	return names
}

func validateTags(names []string) error {
	for _, n := range names {
		if tooLong(n) {
			return apperr.Validation(fmt.Sprintf("tag name is longer than %d characters", maxNameLength))
		}
	}

	return nil
}

func tooLong(s string) bool {
	return utf8.RuneCountInString(s) > maxNameLength
}
