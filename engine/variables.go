package engine

import "regexp"

// variableRefRe matches ${KEY} references at runtime, the same textual
// form the validator checks statically.
var variableRefRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// substitute replaces every ${KEY} occurrence in s with vars[KEY]. A
// reference to an unknown key is left literal.
func substitute(s string, vars map[string]string) string {
	if s == "" {
		return s
	}
	return variableRefRe.ReplaceAllStringFunc(s, func(match string) string {
		sub := variableRefRe.FindStringSubmatch(match)
		if sub == nil {
			return match
		}
		if v, ok := vars[sub[1]]; ok {
			return v
		}
		return match
	})
}

// substituteMap applies substitute to every value of m, returning a new map.
func substituteMap(m map[string]string, vars map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = substitute(v, vars)
	}
	return out
}

// substituteAll applies substitute to every element of ss, returning a new slice.
func substituteAll(ss []string, vars map[string]string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = substitute(s, vars)
	}
	return out
}

// mergeVariables returns a new map containing base overlaid with overlay,
// with every overlay value variable-resolved against base first.
func mergeVariables(base map[string]string, overlay map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range substituteMap(overlay, base) {
		out[k] = v
	}
	return out
}
