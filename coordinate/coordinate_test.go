package coordinate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/deobf/coordinate"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		notation string
		want     coordinate.Coordinate
		wantErr  bool
	}{
		{
			name:     "module notation defaults to jar",
			notation: "net.mc:client:1.20.1",
			want:     coordinate.Coordinate{Group: "net.mc", Name: "client", Version: "1.20.1", Extension: "jar"},
		},
		{
			name:     "classifier and extension",
			notation: "net.mc:client:1.20.1:sources@zip",
			want:     coordinate.Coordinate{Group: "net.mc", Name: "client", Version: "1.20.1", Classifier: "sources", Extension: "zip"},
		},
		{
			name:     "synthetic version is kept verbatim",
			notation: "net.mc:client:1.20.1_mapped_official_2023.10_client@pom",
			want:     coordinate.Coordinate{Group: "net.mc", Name: "client", Version: "1.20.1_mapped_official_2023.10_client", Extension: "pom"},
		},
		{name: "empty", notation: "  ", wantErr: true},
		{name: "too few parts", notation: "net.mc:client", wantErr: true},
		{name: "too many parts", notation: "a:b:c:d:e", wantErr: true},
		{name: "empty name", notation: "net.mc::1.0", wantErr: true},
		{name: "empty extension", notation: "net.mc:client:1.0@", wantErr: true},
		{name: "parent name", notation: "g:..:1.0", wantErr: true},
		{name: "separator in version", notation: "g:n:../../../escaped_mapped_official_1", wantErr: true},
		{name: "separator in classifier", notation: `g:n:1.0:a\b`, wantErr: true},
		{name: "separator in extension", notation: "g:n:1.0@x/jar", wantErr: true},
		{name: "empty group segment", notation: "net..mc:n:1.0", wantErr: true},
		{name: "current dir version", notation: "g:n:.", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)
			got, err := coordinate.Parse(tc.notation)
			if tc.wantErr {
				r.Error(err)
				return
			}
			r.NoError(err)
			r.Equal(tc.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	r := require.New(t)
	r.NoError(coordinate.MustParse("net.mc:client:1.20.1..2:natives@jar").Validate())
	r.NoError(coordinate.Coordinate{Group: "g", Name: "n", Version: "1"}.Validate())

	for _, c := range []coordinate.Coordinate{
		{Group: "g", Name: "n"},
		{Group: "..", Name: "n", Version: "1"},
		{Group: "g/h", Name: "n", Version: "1"},
		{Group: "g", Name: "n", Version: "1", Classifier: ".."},
		{Group: "g", Name: "n", Version: "1\x00"},
	} {
		r.Error(c.Validate(), c.String())
	}
}

func TestStringParseInverse(t *testing.T) {
	r := require.New(t)
	for _, notation := range []string{
		"net.mc:client:1.20.1@jar",
		"net.mc:client:1.20.1:natives-linux@jar",
		"org.example:lib:2.0@pom",
	} {
		c, err := coordinate.Parse(notation)
		r.NoError(err)
		r.Equal(notation, c.String())
	}
}

func TestLayout(t *testing.T) {
	r := require.New(t)
	c := coordinate.MustParse("net.mc:client:1.20.1:natives@jar")
	r.Equal("client-1.20.1-natives.jar", c.FileName())
	r.Equal("net/mc/client/1.20.1", c.Dir())
	r.Equal("net/mc/client/1.20.1/client-1.20.1-natives.jar", c.RelativePath())
	r.Equal("net.mc:client:1.20.1", c.ModuleString())
	r.Equal("client-1.20.1.pom", c.WithClassifier("").WithExtension("pom").FileName())
}

func TestWithReturnsCopies(t *testing.T) {
	r := require.New(t)
	c := coordinate.New("net.mc", "client", "1.20.1")
	changed := c.WithGroup("other").WithVersion("2")
	r.Equal("net.mc", c.Group)
	r.Equal("1.20.1", c.Version)
	r.Equal("other:client:2@jar", changed.String())
}

func TestFilters(t *testing.T) {
	r := require.New(t)
	c := coordinate.MustParse("net.mc:client:1.20.1")

	r.True(coordinate.SameModule(c)(c.WithClassifier("sources")))
	r.True(coordinate.SameModule(c)(c.WithExtension("pom")))
	r.False(coordinate.SameModule(c)(c.WithVersion("1.19")))

	r.True(coordinate.Exactly(c)(c))
	r.False(coordinate.Exactly(c)(c.WithClassifier("sources")))
	r.False(coordinate.Exactly(c)(c.WithExtension("pom")))

	r.True(coordinate.All()(c))
	r.False(coordinate.All(coordinate.SameModule(c), coordinate.Exactly(c.WithExtension("pom")))(c))
}
