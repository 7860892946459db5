package mcp

import "strings"

// ExpandEnv substitutes $VAR, ${VAR} and ${VAR:-default} references in s
// using lookup, per §4.7's "env and headers expansion at connection time"
// rule. Unknown variables without a default expand to the empty string.
func ExpandEnv(s string, lookup func(string) (string, bool)) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '$' || i == len(s)-1 {
			out.WriteByte(s[i])
			continue
		}
		if s[i+1] == '{' {
			end := strings.IndexByte(s[i+2:], '}')
			if end == -1 {
				out.WriteByte(s[i])
				continue
			}
			expr := s[i+2 : i+2+end]
			out.WriteString(resolveExpr(expr, lookup))
			i += 2 + end
			continue
		}
		j := i + 1
		for j < len(s) && isVarChar(s[j]) {
			j++
		}
		if j == i+1 {
			out.WriteByte(s[i])
			continue
		}
		name := s[i+1 : j]
		if v, ok := lookup(name); ok {
			out.WriteString(v)
		}
		i = j - 1
	}
	return out.String()
}

func resolveExpr(expr string, lookup func(string) (string, bool)) string {
	if idx := strings.Index(expr, ":-"); idx != -1 {
		name, def := expr[:idx], expr[idx+2:]
		if v, ok := lookup(name); ok && v != "" {
			return v
		}
		return def
	}
	if v, ok := lookup(expr); ok {
		return v
	}
	return ""
}

func isVarChar(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// ExpandMap applies ExpandEnv to every value of m using os.LookupEnv-shaped
// lookup, returning a new map.
func ExpandMap(m map[string]string, lookup func(string) (string, bool)) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = ExpandEnv(v, lookup)
	}
	return out
}
