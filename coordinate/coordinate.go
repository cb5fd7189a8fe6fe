// Package coordinate provides the addressing scheme used to identify a single
// artifact file during dependency resolution.
//
// A coordinate is written in the notation
//
//	<group>:<name>:<version>[:<classifier>][@<extension>]
//
// where the extension defaults to [DefaultExtension] if omitted.
package coordinate

import (
	"fmt"
	"path"
	"strings"
)

// DefaultExtension is the extension assumed for notations without an explicit extension.
const DefaultExtension = "jar"

// Coordinate identifies one artifact file.
// An empty Classifier means the artifact has no classifier.
// Coordinates are values; the With* helpers return modified copies.
type Coordinate struct {
	Group      string `json:"group"`
	Name       string `json:"name"`
	Version    string `json:"version"`
	Classifier string `json:"classifier,omitempty"`
	Extension  string `json:"extension"`
}

// New creates a coordinate without classifier and with the default extension.
func New(group, name, version string) Coordinate {
	return Coordinate{Group: group, Name: name, Version: version, Extension: DefaultExtension}
}

// Parse parses a coordinate notation, see the package documentation for the format.
func Parse(notation string) (Coordinate, error) {
	notation = strings.TrimSpace(notation)
	if notation == "" {
		return Coordinate{}, fmt.Errorf("empty coordinate notation")
	}

	ext := DefaultExtension
	if idx := strings.LastIndex(notation, "@"); idx >= 0 {
		ext = notation[idx+1:]
		notation = notation[:idx]
		if ext == "" {
			return Coordinate{}, fmt.Errorf("invalid coordinate notation %q: empty extension", notation)
		}
	}

	parts := strings.Split(notation, ":")
	if len(parts) < 3 || len(parts) > 4 {
		return Coordinate{}, fmt.Errorf("invalid coordinate notation %q: expected group:name:version[:classifier][@extension]", notation)
	}
	for i, field := range []string{"group", "name", "version"} {
		if parts[i] == "" {
			return Coordinate{}, fmt.Errorf("invalid coordinate notation %q: empty %s", notation, field)
		}
	}

	c := Coordinate{
		Group:     parts[0],
		Name:      parts[1],
		Version:   parts[2],
		Extension: ext,
	}
	if len(parts) == 4 {
		c.Classifier = parts[3]
	}
	if err := c.Validate(); err != nil {
		return Coordinate{}, fmt.Errorf("invalid coordinate notation %q: %w", notation, err)
	}
	return c, nil
}

// Validate reports fields that cannot be mapped to a single path segment of the
// repository layout. Group segments are the dot separated parts of the group.
func (c Coordinate) Validate() error {
	if c.Group == "" || c.Name == "" || c.Version == "" {
		return fmt.Errorf("group, name and version are required")
	}
	for _, segment := range strings.Split(c.Group, ".") {
		if err := validSegment("group", segment, false); err != nil {
			return err
		}
	}
	for _, field := range []struct {
		name, value string
		optional    bool
	}{
		{"name", c.Name, false},
		{"version", c.Version, false},
		{"classifier", c.Classifier, true},
		{"extension", c.Extension, true},
	} {
		if err := validSegment(field.name, field.value, field.optional); err != nil {
			return err
		}
	}
	return nil
}

func validSegment(field, value string, optional bool) error {
	switch {
	case value == "" && optional:
		return nil
	case value == "":
		return fmt.Errorf("empty %s segment", field)
	case value == "." || value == "..":
		return fmt.Errorf("%s must not be %q", field, value)
	case strings.ContainsAny(value, "/\\\x00"):
		return fmt.Errorf("%s %q must not contain path separators", field, value)
	}
	return nil
}

// MustParse is like Parse but panics on invalid notations.
// It should only be used for static notations, e.g. in tests.
func MustParse(notation string) Coordinate {
	c, err := Parse(notation)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the notation of the coordinate.
func (c Coordinate) String() string {
	var sb strings.Builder
	sb.WriteString(c.Group)
	sb.WriteByte(':')
	sb.WriteString(c.Name)
	sb.WriteByte(':')
	sb.WriteString(c.Version)
	if c.Classifier != "" {
		sb.WriteByte(':')
		sb.WriteString(c.Classifier)
	}
	if c.Extension != "" {
		sb.WriteByte('@')
		sb.WriteString(c.Extension)
	}
	return sb.String()
}

// ModuleString returns the group:name:version part of the coordinate.
// It identifies the module the artifact belongs to.
func (c Coordinate) ModuleString() string {
	return c.Group + ":" + c.Name + ":" + c.Version
}

// Module returns the module coordinate, i.e. the coordinate stripped
// from classifier and extension.
func (c Coordinate) Module() Coordinate {
	return Coordinate{Group: c.Group, Name: c.Name, Version: c.Version}
}

func (c Coordinate) WithGroup(group string) Coordinate {
	c.Group = group
	return c
}

func (c Coordinate) WithVersion(version string) Coordinate {
	c.Version = version
	return c
}

func (c Coordinate) WithClassifier(classifier string) Coordinate {
	c.Classifier = classifier
	return c
}

func (c Coordinate) WithExtension(extension string) Coordinate {
	c.Extension = extension
	return c
}

// FileName returns the conventional file name of the artifact:
//
//	<name>-<version>[-<classifier>].<extension>
func (c Coordinate) FileName() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	sb.WriteByte('-')
	sb.WriteString(c.Version)
	if c.Classifier != "" {
		sb.WriteByte('-')
		sb.WriteString(c.Classifier)
	}
	if c.Extension != "" {
		sb.WriteByte('.')
		sb.WriteString(c.Extension)
	}
	return sb.String()
}

// Dir returns the slash separated directory of the module in a
// Maven-style layout, e.g. "net/mc/client/1.20.1".
func (c Coordinate) Dir() string {
	return path.Join(append(strings.Split(c.Group, "."), c.Name, c.Version)...)
}

// RelativePath returns the slash separated path of the artifact in a
// Maven-style layout.
func (c Coordinate) RelativePath() string {
	return path.Join(c.Dir(), c.FileName())
}
