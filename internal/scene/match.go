package scene

import "strings"

// MatchPath reports whether a dotted path matches a glob-like pattern.
// Patterns are dotted paths where a "*" segment matches exactly one path
// segment and a "**" segment matches any number of segments, including
// none. All other segments match literally.
//
//	MatchPath("surface.*", "surface.reflectance")        // true
//	MatchPath("surface.*", "surface.bsdf.reflectance")   // false
//	MatchPath("surface.**", "surface.bsdf.reflectance")  // true
//	MatchPath("**.reflectance", "surface.reflectance")   // true
func MatchPath(pattern, path string) bool {
	return matchSegments(strings.Split(pattern, "."), strings.Split(path, "."))
}

func matchSegments(pattern, path []string) bool {
	if len(pattern) == 0 {
		return len(path) == 0
	}
	if pattern[0] == "**" {
		// Try consuming zero or more path segments.
		for skip := 0; skip <= len(path); skip++ {
			if matchSegments(pattern[1:], path[skip:]) {
				return true
			}
		}
		return false
	}
	if len(path) == 0 {
		return false
	}
	if pattern[0] != "*" && pattern[0] != path[0] {
		return false
	}
	return matchSegments(pattern[1:], path[1:])
}
