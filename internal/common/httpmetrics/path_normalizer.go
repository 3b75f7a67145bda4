package httpmetrics

import "strings"

// routes are the paths the auth service serves. Anything else is reported
// as "other" so scanners cannot blow up label cardinality.
var routes = map[string]struct{}{
	"/":             {},
	"/health":       {},
	"/metrics":      {},
	"/auth/signup":  {},
	"/auth/signin":  {},
	"/auth/token":   {},
	"/auth/session": {},
}

// providerRoutes take a provider id as their last segment.
var providerRoutes = []string{"/auth/signin/", "/auth/callback/"}

func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	if _, ok := routes[path]; ok {
		return path
	}

	for _, prefix := range providerRoutes {
		rest, ok := strings.CutPrefix(path, prefix)
		if ok && rest != "" && !strings.Contains(rest, "/") {
			return prefix + "{provider}"
		}
	}

	return "other"
}
