package v1_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1 "ocm.software/open-component-model/deobf/config/v1"
	"ocm.software/open-component-model/deobf/coordinate"
)

const valid = `
type: deobf.config.ocm.software/v1
cache: ~/cache/deobf
repositories:
  - $DEOBF_TEST_REPO/maven
configurations:
  - name: minecraft
    dependencies:
      - net.mc:client:1.20.1
      - net.mc:client:1.20.1:natives-linux
    components: ["net.mc:*"]
transformer:
  command: [remap, "{{.Input}}", "{{.Output}}"]
  timeout: 90s
`

func TestParse(t *testing.T) {
	r := require.New(t)
	t.Setenv("DEOBF_TEST_REPO", "/srv")
	home, err := os.UserHomeDir()
	r.NoError(err)

	cfg, err := v1.Parse([]byte(valid))
	r.NoError(err)
	r.Equal(filepath.Join(home, "cache", "deobf"), cfg.Cache)
	r.Equal([]string{"/srv/maven"}, cfg.Repositories)
	r.Equal(90*time.Second, cfg.Transformer.Timeout.Value())
	r.Len(cfg.Configurations, 1)

	coords, err := cfg.Configurations[0].Coordinates()
	r.NoError(err)
	r.Equal([]coordinate.Coordinate{
		coordinate.MustParse("net.mc:client:1.20.1"),
		coordinate.MustParse("net.mc:client:1.20.1:natives-linux"),
	}, coords)
}

func TestParse_Defaults(t *testing.T) {
	r := require.New(t)
	cfg, err := v1.Parse([]byte(`
type: deobf.config.ocm.software
transformer:
  command: [remap]
`))
	r.NoError(err)
	r.Equal(10*time.Minute, cfg.Transformer.Timeout.Value())
	r.Equal(v1.DefaultCacheDirName, filepath.Base(cfg.Cache))
	r.Empty(cfg.Configurations)
}

func TestParse_Invalid(t *testing.T) {
	r := require.New(t)
	_, err := v1.Parse([]byte(`
type: something.else/v1
configurations:
  - name: a
    dependencies: [net.mc:client]
  - name: a
    dependencies: [net.mc:client:1.0]
  - dependencies: [net.mc:client:1.0]
  - name: empty
`))
	r.Error(err)
	for _, msg := range []string{
		`unsupported configuration type "something.else/v1"`,
		"transformer command must not be empty",
		`duplicate configuration name "a"`,
		`configuration "a": invalid coordinate notation "net.mc:client"`,
		"configuration 2 has no name",
		`configuration "empty" declares no dependencies`,
	} {
		r.ErrorContains(err, msg)
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := v1.Parse([]byte(`
type: deobf.config.ocm.software/v1
transformer:
  command: [remap]
  retries: 3
`))
	require.ErrorContains(t, err, "configuration does not match schema")
}

func TestParse_SchemaTypes(t *testing.T) {
	r := require.New(t)
	_, err := v1.Parse([]byte(`
type: deobf.config.ocm.software/v1
repositories: /srv/maven
transformer:
  command: [remap]
`))
	r.ErrorContains(err, "configuration does not match schema")

	_, err = v1.Parse([]byte(`transformer: {command: [remap]}`))
	r.ErrorContains(err, "configuration does not match schema")
}

func TestJSONSchema(t *testing.T) {
	r := require.New(t)
	r.Contains(string(v1.JSONSchema()), `"title": "deobf configuration"`)
	r.NoError(v1.ValidateSchema([]byte(valid)))
}

func TestParse_InvalidTimeout(t *testing.T) {
	_, err := v1.Parse([]byte(`
type: deobf.config.ocm.software/v1
transformer:
  command: [remap]
  timeout: soon
`))
	require.ErrorContains(t, err, `invalid timeout value "soon"`)
}

func TestLoad(t *testing.T) {
	r := require.New(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	r.NoError(os.WriteFile(path, []byte("type: deobf.config.ocm.software/v1\ntransformer:\n  command: [remap]\n"), 0o600))

	cfg, err := v1.Load(path)
	r.NoError(err)
	r.Equal([]string{"remap"}, cfg.Transformer.Command)

	_, err = v1.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	r.ErrorIs(err, os.ErrNotExist)
}
