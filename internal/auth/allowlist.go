package auth

import (
	"path"
	"strings"
)

// DefaultAllowList holds the paths that never require identity resolution.
var DefaultAllowList = []string{
	"/api/v1/user/login",
	"/api/v1/user/logout",
	"/api/v1/user/register",
	"/favicon.ico",
	"/uploads/**",
	"/healthz",
	"/readyz",
	"/metrics",
}

// AllowList matches request paths against glob patterns.
//
// "*" and "?" match within a single path segment; a "**" segment matches
// zero or more segments.
type AllowList struct {
	patterns [][]string
}

// NewAllowList compiles the patterns. Invalid segments never match.
func NewAllowList(patterns ...string) *AllowList {
	compiled := make([][]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		compiled = append(compiled, splitPath(p))
	}
	return &AllowList{patterns: compiled}
}

// IsExempt reports whether the path matches any pattern.
func (a *AllowList) IsExempt(urlPath string) bool {
	segments := splitPath(path.Clean("/" + urlPath))
	for _, pattern := range a.patterns {
		if matchSegments(pattern, segments) {
			return true
		}
	}
	return false
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchSegments(pattern, segments []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(segments); i++ {
				if matchSegments(rest, segments[i:]) {
					return true
				}
			}
			return false
		}
		if len(segments) == 0 {
			return false
		}
		ok, err := path.Match(pattern[0], segments[0])
		if err != nil || !ok {
			return false
		}
		pattern, segments = pattern[1:], segments[1:]
	}
	return len(segments) == 0
}
