package session

import "strings"

// markerDirs are path components that separate the user's home prefix from
// the part of an encoded project name worth showing.
var markerDirs = map[string]bool{
	"code":     true,
	"projects": true,
	"writing":  true,
	"scratch":  true,
}

// DemangleProjectName converts an encoded project directory name into a
// human-readable form. Claude Code encodes the project's absolute path with
// dashes, e.g.
//
//	-Users-alex-code-dotfiles            -> dotfiles
//	-Users-alex-code-papers-detection    -> papers/detection
//
// When no marker directory is found the last component is used.
func DemangleProjectName(encoded string) string {
	parts := strings.Split(encoded, "-")

	for i, part := range parts {
		if markerDirs[strings.ToLower(part)] {
			if rest := parts[i+1:]; len(rest) > 0 {
				return strings.Join(rest, "/")
			}
		}
	}

	if len(parts) > 0 && parts[len(parts)-1] != "" {
		return parts[len(parts)-1]
	}
	return encoded
}
