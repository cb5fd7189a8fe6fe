package local

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"ocm.software/open-component-model/deobf/coordinate"
)

type pomProject struct {
	XMLName      xml.Name        `xml:"project"`
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Parent       pomParent       `xml:"parent"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
}

type pomParent struct {
	GroupID string `xml:"groupId"`
	Version string `xml:"version"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
	Optional   string `xml:"optional"`
}

// dependency is a module dependency read from a pom.
type dependency struct {
	Module coordinate.Coordinate
	Scope  string
}

// readPOMDependencies reads the non-optional dependencies of a pom file whose scope is
// contained in scopes. Dependencies with versions that cannot be determined without
// full model interpolation are returned in skipped.
func readPOMDependencies(path string, module coordinate.Coordinate, scopes map[string]struct{}) (deps []dependency, skipped []string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var project pomProject
	if err := xml.Unmarshal(data, &project); err != nil {
		return nil, nil, fmt.Errorf("parsing pom %s failed: %w", path, err)
	}

	properties := map[string]string{
		"project.groupId":    firstNonEmpty(project.GroupID, project.Parent.GroupID, module.Group),
		"project.version":    firstNonEmpty(project.Version, project.Parent.Version, module.Version),
		"project.artifactId": firstNonEmpty(project.ArtifactID, module.Name),
	}

	for _, d := range project.Dependencies {
		scope := strings.TrimSpace(d.Scope)
		if scope == "" {
			scope = "compile"
		}
		if _, ok := scopes[scope]; !ok || strings.TrimSpace(d.Optional) == "true" {
			continue
		}
		group := interpolate(strings.TrimSpace(d.GroupID), properties)
		name := interpolate(strings.TrimSpace(d.ArtifactID), properties)
		version := interpolate(strings.TrimSpace(d.Version), properties)
		if group == "" || name == "" || version == "" || strings.Contains(group+name+version, "${") || isVersionRange(version) {
			skipped = append(skipped, fmt.Sprintf("%s:%s:%s", d.GroupID, d.ArtifactID, d.Version))
			continue
		}
		target := coordinate.Coordinate{Group: group, Name: name, Version: version}
		if target.Validate() != nil {
			skipped = append(skipped, fmt.Sprintf("%s:%s:%s", d.GroupID, d.ArtifactID, d.Version))
			continue
		}
		deps = append(deps, dependency{Module: target, Scope: scope})
	}
	return deps, skipped, nil
}

func interpolate(value string, properties map[string]string) string {
	for key, replacement := range properties {
		value = strings.ReplaceAll(value, "${"+key+"}", replacement)
	}
	return value
}

func isVersionRange(version string) bool {
	return strings.ContainsAny(version, "[](),")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
