package connectors

import (
	"os"
	"regexp"
	"strings"
)

var envVarPattern = regexp.MustCompile(`\$\{(\w+)\}`)

// resolveHeaders substitutes ${ENV_VAR} references in header values and
// drops any header that resolves empty, or an Authorization header that
// resolves to the bare word "bearer" (a missing-token placeholder left
// in config). A User-Agent is added if the source didn't set one.
func resolveHeaders(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw)+1)
	for k, v := range raw {
		resolved := envVarPattern.ReplaceAllStringFunc(v, func(m string) string {
			name := envVarPattern.FindStringSubmatch(m)[1]
			return os.Getenv(name)
		})
		resolved = strings.TrimSpace(resolved)
		if resolved == "" {
			continue
		}
		if strings.EqualFold(k, "Authorization") && strings.EqualFold(resolved, "bearer") {
			continue
		}
		out[k] = resolved
	}
	if _, ok := out["User-Agent"]; !ok {
		out["User-Agent"] = DefaultUserAgent
	}
	return out
}
