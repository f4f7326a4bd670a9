package util

import (
	"strings"
)

// FilterOSArgs returns args with the values of all flags not on safeFlags masked. Values may be given
// either as the argument following the flag or inline as --flag=value. Flag names are matched
// without their leading dashes and case-insensitively.
func FilterOSArgs(args []string, safeFlags []string) []string {
	var (
		sanitized  = make([]string, len(args))
		maskNext   = false
		safeByName = make(map[string]struct{}, len(safeFlags))
		isSafe     = func(name string) bool {
			_, ok := safeByName[strings.ToLower(strings.TrimLeft(name, "-"))]
			return ok
		}
	)
	for _, name := range safeFlags {
		safeByName[strings.ToLower(name)] = struct{}{}
	}
	for i, arg := range args {
		switch {
		case arg == "--":
			maskNext = false
			sanitized[i] = arg
		case strings.HasPrefix(arg, "--"):
			name, value, inline := strings.Cut(arg, "=")
			if inline {
				maskNext = false
				if !isSafe(name) {
					value = strings.Repeat("*", len(value))
				}
				sanitized[i] = name + "=" + value
			} else {
				maskNext = !isSafe(name)
				sanitized[i] = arg
			}
		case maskNext:
			sanitized[i] = strings.Repeat("*", len(arg))
			maskNext = false
		default:
			sanitized[i] = arg
		}
	}
	return sanitized
}
