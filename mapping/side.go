package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSide is matched by every [UnknownSideError].
var ErrUnknownSide = errors.New("unknown side")

// Side selects the runtime variant a mapping applies to.
type Side int

const (
	SideClient Side = iota
	SideServer
	SideJoined
)

// DefaultSide is used when a synthetic version carries no side token.
const DefaultSide = SideClient

var sideNames = map[Side]string{
	SideClient: "client",
	SideServer: "server",
	SideJoined: "joined",
}

// UnknownSideError is returned for side tokens that are not part of the side table.
type UnknownSideError struct {
	Token string
}

func (e *UnknownSideError) Error() string {
	return fmt.Sprintf("unknown side %q, expected one of client, server, joined", e.Token)
}

func (e *UnknownSideError) Is(target error) bool {
	return target == ErrUnknownSide
}

// ParseSide resolves a side token through the side table.
// Tokens are matched case-insensitively.
func ParseSide(token string) (Side, error) {
	lower := strings.ToLower(token)
	for side, name := range sideNames {
		if name == lower {
			return side, nil
		}
	}
	return 0, &UnknownSideError{Token: token}
}

func (s Side) String() string {
	if name, ok := sideNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

func (s Side) MarshalText() ([]byte, error) {
	if _, ok := sideNames[s]; !ok {
		return nil, fmt.Errorf("cannot marshal %s: %w", s, ErrUnknownSide)
	}
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	side, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = side
	return nil
}
