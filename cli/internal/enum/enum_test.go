package enum_test

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/deobf/cli/internal/enum"
)

func TestVar(t *testing.T) {
	r := require.New(t)
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	enum.Var(flags, "side", []string{"client", "server"}, "the side")
	flags.String("plain", "", "")

	v, err := enum.Get(flags, "side")
	r.NoError(err)
	r.Equal("client", v)

	r.NoError(flags.Parse([]string{"--side", "server"}))
	v, err = enum.Get(flags, "side")
	r.NoError(err)
	r.Equal("server", v)

	r.ErrorContains(flags.Parse([]string{"--side", "joined"}), "must be one of client, server")

	_, err = enum.Get(flags, "plain")
	r.ErrorContains(err, "is not an enum flag")
	_, err = enum.Get(flags, "missing")
	r.ErrorContains(err, "not defined")
}
