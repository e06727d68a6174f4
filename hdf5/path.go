package hdf5

import (
	"fmt"
	"strings"
)

// ParseAttrPath splits "/group/object@attribute" into the object path and
// the attribute name.
//
// Examples:
//   - "/@root_attr" -> objectPath="/", attrName="root_attr"
//   - "/spectra/hpge@type" -> objectPath="/spectra/hpge", attrName="type"
func ParseAttrPath(path string) (objectPath, attrName string, err error) {
	at := strings.LastIndex(path, "@")
	if at == -1 {
		return "", "", fmt.Errorf("%w: attribute path must contain '@': %q", ErrInvalidPath, path)
	}
	objectPath, attrName = path[:at], path[at+1:]
	if attrName == "" {
		return "", "", fmt.Errorf("%w: empty attribute name in %q", ErrInvalidPath, path)
	}
	return CleanPath(objectPath), attrName, nil
}

// SplitPath splits a path into its components, dropping empty ones.
//
// Examples:
//   - "/" -> []string{}
//   - "/foo/bar" -> []string{"foo", "bar"}
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" && p != "." {
			out = append(out, p)
		}
	}
	return out
}

// CleanPath normalizes a path to start with "/" and have no trailing slash.
func CleanPath(path string) string {
	return "/" + strings.Join(SplitPath(path), "/")
}

func joinPath(parent, name string) string {
	if parent == "/" || parent == "" {
		return "/" + name
	}
	return parent + "/" + name
}

func validName(name string) error {
	if name == "" || name == "." || strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return nil
}
