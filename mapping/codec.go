// Package mapping encodes and decodes synthetic versions.
//
// A synthetic version requests the deobfuscated variant of an artifact and has the form
//
//	<original version>_mapped_<channel>_<mapping version>[_<side>]
//
// The side defaults to [DefaultSide] if omitted.
package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// Marker separates the original version from the mapping specification.
const Marker = "_mapped_"

// ErrMalformed is matched by every [MalformedError].
var ErrMalformed = errors.New("malformed synthetic version")

// Spec selects the mapping table and the side to apply.
type Spec struct {
	Channel string `json:"channel"`
	Version string `json:"version"`
	Side    Side   `json:"side"`
}

func (s Spec) String() string {
	return fmt.Sprintf("%s/%s (%s)", s.Channel, s.Version, s.Side)
}

// MalformedError is returned for versions that carry the [Marker] but no valid
// channel and mapping version after it.
type MalformedError struct {
	Version string
	Reason  string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed synthetic version %q: %s", e.Version, e.Reason)
}

func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

// IsSynthetic reports whether the version carries the [Marker].
func IsSynthetic(version string) bool {
	return strings.Contains(version, Marker)
}

// Decode extracts the mapping specification from a synthetic version.
// It reports ok=false without an error if the version is not synthetic, in which case
// the artifact is not meant to be remapped at all.
// Once the marker is present, an unknown side token is reported as [UnknownSideError]
// and a missing channel or mapping version as [MalformedError].
func Decode(version string) (spec Spec, ok bool, err error) {
	_, encoded, found := strings.Cut(version, Marker)
	if !found {
		return Spec{}, false, nil
	}

	tokens := strings.Split(encoded, "_")
	if len(tokens) < 2 {
		return Spec{}, true, &MalformedError{Version: version, Reason: "expected <channel>_<mapping version>[_<side>]"}
	}
	if tokens[0] == "" || tokens[1] == "" {
		return Spec{}, true, &MalformedError{Version: version, Reason: "empty channel or mapping version"}
	}

	spec = Spec{Channel: tokens[0], Version: tokens[1], Side: DefaultSide}
	if len(tokens) > 2 {
		if spec.Side, err = ParseSide(tokens[2]); err != nil {
			return Spec{}, true, fmt.Errorf("decoding synthetic version %q: %w", version, err)
		}
	}
	return spec, true, nil
}

// Strip returns the original version of a synthetic version.
// It panics if the version is not synthetic; callers must only call it after
// a successful Decode.
func Strip(version string) string {
	original, _, found := strings.Cut(version, Marker)
	if !found {
		panic(fmt.Sprintf("version %q does not contain %q", version, Marker))
	}
	return original
}

// Encode builds the synthetic version requesting spec for the original version.
// The side token is omitted for the default side.
func Encode(original string, spec Spec) string {
	var sb strings.Builder
	sb.WriteString(original)
	sb.WriteString(Marker)
	sb.WriteString(spec.Channel)
	sb.WriteByte('_')
	sb.WriteString(spec.Version)
	if spec.Side != DefaultSide {
		sb.WriteByte('_')
		sb.WriteString(spec.Side.String())
	}
	return sb.String()
}
