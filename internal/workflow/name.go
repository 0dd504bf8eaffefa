package workflow

import (
	"strings"

	"github.com/forPelevin/gomoji"
)

// FolderSafeName canonicalizes a project title into a name that is
// valid as a single pCloud path segment: emoji are stripped (tracker
// titles routinely carry them), characters invalid in provider paths
// are replaced with underscores, whitespace runs are collapsed and
// leading/trailing dots and spaces are trimmed. Returns "" when nothing
// usable remains.
func FolderSafeName(title string) string {
	name := gomoji.RemoveEmojis(title)

	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)

	name = strings.Join(strings.Fields(name), " ")
	return strings.Trim(name, ". ")
}
