package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bayleafwalker/bindery-compose/compose"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("BINDERY_COMPOSE_OTEL_ENABLED", "false")
	t.Setenv("BINDERY_LOCALE", "en-US")
	t.Setenv("BINDERY_OUTPUT_DEVICE", "")
	t.Setenv("BINDERY_LIBRARY_PATH", "")
	t.Setenv("BINDERY_ADMIN_ADDRESS", "")
	t.Setenv("BINDERY_PREFERENCES_PATH", "")

	var out bytes.Buffer
	cmd := New()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestModulesCommand(t *testing.T) {
	out, err := execute(t, "modules")
	require.NoError(t, err)
	for _, name := range []string{"bindery.settings", "bindery.audio", "bindery.library", "bindery.localization", "bindery.admin", "bindery.player"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "bindery.audio@1.0.0 (plugin)")
}

func TestRunCommand(t *testing.T) {
	out, err := execute(t, "run", "--platform", "windows/amd64")
	require.NoError(t, err)
	assert.Equal(t, "Player ready on output null\nVolume 80%\n0 tracks in library\n", out)
}

func TestRunCommand_Exclusion(t *testing.T) {
	_, err := execute(t, "run", "--platform", "windows/amd64",
		"--exclude", "github.com/bayleafwalker/bindery-compose/modules/audio.NullOutput")
	require.Error(t, err)
	assert.True(t, compose.IsConstructorError(err))
}

func TestRunCommand_UnknownModule(t *testing.T) {
	_, err := execute(t, "run", "--module", "bindery.missing")
	require.Error(t, err)
	assert.True(t, compose.IsModuleLoadError(err))
}

const compositionFile = `apiVersion: compose.bindery.dev/v1alpha1
kind: Composition
metadata:
  name: localized
spec:
  modules:
  - bindery.localization@1.0.0
  platform: linux
`

func TestPlanCommand_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "composition.yaml")
	require.NoError(t, os.WriteFile(path, []byte(compositionFile), 0o644))

	out, err := execute(t, "plan", "-f", path, "-o", "json")
	require.NoError(t, err)

	var plan compose.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	require.Len(t, plan.Modules, 2)
	assert.Equal(t, "bindery.localization", plan.Modules[0].Name)
	assert.Equal(t, "bindery.settings", plan.Modules[1].Name)

	var names []string
	for _, c := range plan.Components {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "github.com/bayleafwalker/bindery-compose/modules/localization.CatalogLocalizer")
	assert.Empty(t, plan.Unresolved)
}

func TestPlanCommand_Table(t *testing.T) {
	out, err := execute(t, "plan", "--platform", "linux/amd64")
	require.NoError(t, err)
	assert.Contains(t, out, "bindery.player")
	assert.Contains(t, out, "audio.ALSAOutput")
	assert.NotContains(t, out, "audio.CoreAudioOutput")

	_, err = execute(t, "plan", "-o", "xml")
	assert.Error(t, err)
}

func TestComposeFlags_Spec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "composition.yaml")
	require.NoError(t, os.WriteFile(path, []byte(compositionFile), 0o644))

	f := &composeFlags{file: path, modules: []string{"bindery.admin"}, platform: "darwin", allowUnresolved: true}
	spec, root, err := f.spec()
	require.NoError(t, err)
	assert.Equal(t, []string{"bindery.localization@1.0.0", "bindery.admin"}, spec.Modules)
	assert.Equal(t, "darwin", spec.Platform)
	assert.True(t, spec.AllowUnresolved)
	assert.Equal(t, filepath.Dir(path), root)

	spec, _, err = (&composeFlags{}).spec()
	require.NoError(t, err)
	assert.Equal(t, []string{"bindery.player"}, spec.Modules)

	_, _, err = (&composeFlags{file: filepath.Join(t.TempDir(), "missing.yaml")}).spec()
	assert.Error(t, err)
}

func TestControllerCommand_Flags(t *testing.T) {
	cmd, _, err := New().Find([]string{"controller"})
	require.NoError(t, err)
	assert.Equal(t, "controller", cmd.Name())

	for flag, def := range map[string]string{
		FlagMetricsBindAddress:     ":8080",
		FlagHealthProbeBindAddress: ":8081",
		FlagLeaderElect:            "false",
	} {
		f := cmd.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, def, f.DefValue, flag)
	}
}
