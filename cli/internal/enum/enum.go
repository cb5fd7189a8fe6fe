// Package enum provides flags restricted to a fixed set of values.
package enum

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

type value struct {
	allowed []string
	current string
}

var _ pflag.Value = (*value)(nil)

func (v *value) String() string { return v.current }

func (v *value) Set(s string) error {
	if !slices.Contains(v.allowed, s) {
		return fmt.Errorf("must be one of %s", strings.Join(v.allowed, ", "))
	}
	v.current = s
	return nil
}

func (v *value) Type() string { return "enum" }

// Var registers a flag accepting one of allowed. The first allowed value is the default.
func Var(flags *pflag.FlagSet, name string, allowed []string, usage string) {
	flags.Var(&value{allowed: allowed, current: allowed[0]}, name, fmt.Sprintf("%s (one of %s)", usage, strings.Join(allowed, ", ")))
}

// VarP is like Var but with a shorthand.
func VarP(flags *pflag.FlagSet, name, shorthand string, allowed []string, usage string) {
	flags.VarP(&value{allowed: allowed, current: allowed[0]}, name, shorthand, fmt.Sprintf("%s (one of %s)", usage, strings.Join(allowed, ", ")))
}

// Get returns the value of an enum flag.
func Get(flags *pflag.FlagSet, name string) (string, error) {
	flag := flags.Lookup(name)
	if flag == nil {
		return "", fmt.Errorf("flag %q not defined", name)
	}
	if _, ok := flag.Value.(*value); !ok {
		return "", fmt.Errorf("flag %q is not an enum flag", name)
	}
	return flag.Value.String(), nil
}
