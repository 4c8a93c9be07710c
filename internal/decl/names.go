package decl

import (
	"strings"
)

// ResolveTypeName finds name among full type names ("import/path.Name").
// name may be:
//   - "example.Login" (short)
//   - "example.com/app/example.Login" (full)
//   - "Login" (name only).
//
// It returns the index of the match in full.
func ResolveTypeName(name string, full []string) (int, bool) {
	if name == "" {
		return -1, false
	}

	// Name-only: best-effort match by type name.
	if !strings.Contains(name, ".") {
		for i, f := range full {
			if typeName(f) == name {
				return i, true
			}
		}

		return -1, false
	}

	lastDot := strings.LastIndex(name, ".")
	pkgStr, typ := name[:lastDot], name[lastDot+1:]

	if pkgStr == "" || typ == "" {
		return -1, false
	}

	// 1) exact match (for fully qualified import path)
	for i, f := range full {
		if f == name {
			return i, true
		}
	}

	// 2) suffix match (for short forms like "example.Login" vs "example.com/app/example.Login")
	for i, f := range full {
		if typeName(f) != typ {
			continue
		}

		if pkg := pkgPath(f); pkg == pkgStr || strings.HasSuffix(pkg, "/"+pkgStr) {
			return i, true
		}
	}

	return -1, false
}

func typeName(full string) string {
	return full[strings.LastIndex(full, ".")+1:]
}

func pkgPath(full string) string {
	if i := strings.LastIndex(full, "."); i >= 0 {
		return full[:i]
	}

	return ""
}
