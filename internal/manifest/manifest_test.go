package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	v1alpha1 "github.com/bayleafwalker/bindery-compose/api/v1alpha1"
)

const audioManifest = `apiVersion: compose.bindery.dev/v1alpha1
kind: ModuleManifest
metadata:
  name: audio
spec:
  module:
    id: bindery.audio
    version: 1.2.0
  plugin: true
  dependencies:
  - id: bindery.settings
    version: 1.0.0
    plugin: true
`

const composition = `apiVersion: compose.bindery.dev/v1alpha1
kind: Composition
metadata:
  name: player
spec:
  modules:
  - bindery.library@1.0.0
  - manifests/audio.yaml
  exclude:
  - github.com/bayleafwalker/bindery-compose/modules/audio.ALSAOutput
  platform: linux/amd64
`

func TestDecodeModuleManifest(t *testing.T) {
	mm, err := DecodeModuleManifest([]byte(audioManifest))
	require.NoError(t, err)
	assert.Equal(t, "bindery.audio", mm.Spec.Module.ID)
	assert.Equal(t, "1.2.0", mm.Spec.Module.Version)
	assert.True(t, mm.Spec.Plugin)
	require.Len(t, mm.Spec.Dependencies, 1)
	assert.Equal(t, "bindery.settings@1.0.0", mm.Spec.Dependencies[0].Reference())
}

func TestDecodeModuleManifest_Invalid(t *testing.T) {
	_, err := DecodeModuleManifest([]byte(`apiVersion: compose.bindery.dev/v1alpha1
kind: ModuleManifest
metadata:
  name: broken
spec:
  module:
    version: one
  dependencies:
  - id: x
  - id: x
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec.module.id")
	assert.Contains(t, err.Error(), "spec.module.version")
	assert.Contains(t, err.Error(), "spec.dependencies[1].id")
}

func TestDecodeModuleManifest_WrongKind(t *testing.T) {
	_, err := DecodeModuleManifest([]byte(composition))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected ModuleManifest")
}

func TestDecodeComposition(t *testing.T) {
	c, err := DecodeComposition([]byte(composition))
	require.NoError(t, err)
	assert.Equal(t, []string{"bindery.library@1.0.0", "manifests/audio.yaml"}, c.Spec.Modules)
	assert.Equal(t, "linux/amd64", c.Spec.Platform)
	require.Len(t, c.Spec.Exclude, 1)

	_, err = DecodeComposition([]byte(`apiVersion: compose.bindery.dev/v1alpha1
kind: Composition
metadata:
  name: empty
spec:
  modules: []
`))
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "audio.yaml"), []byte(audioManifest), 0o644))

	src := &FileSource{Root: dir}
	mm, err := src.ReadManifest(context.Background(), "audio.yaml")
	require.NoError(t, err)
	assert.Equal(t, "bindery.audio", mm.Spec.Module.ID)

	mm, err = (&FileSource{}).ReadManifest(context.Background(), "file://"+filepath.Join(dir, "audio.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "bindery.audio", mm.Spec.Module.ID)

	_, err = src.ReadManifest(context.Background(), "missing.yaml")
	assert.Error(t, err)
}

func TestReadComposition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "composition.yaml")
	require.NoError(t, os.WriteFile(path, []byte(composition), 0o644))

	c, err := ReadComposition(path)
	require.NoError(t, err)
	assert.Equal(t, "player", c.Name)
}

func clusterFixture() *ClusterSource {
	mm := &v1alpha1.ModuleManifest{
		ObjectMeta: metav1.ObjectMeta{Name: "library", Namespace: "media"},
		Spec: v1alpha1.ModuleManifestSpec{
			Module: v1alpha1.ModuleIdentity{ID: "bindery.library", Version: "1.0.0"},
		},
	}
	cm := &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{Name: "modules", Namespace: "media"},
		Data:       map[string]string{"audio.yaml": audioManifest},
	}
	cl := fake.NewClientBuilder().WithScheme(Scheme).WithObjects(mm, cm).Build()
	return &ClusterSource{Client: cl}
}

func TestClusterSource(t *testing.T) {
	src := clusterFixture()
	ctx := context.Background()

	mm, err := src.ReadManifest(ctx, "k8s://media/library")
	require.NoError(t, err)
	assert.Equal(t, "bindery.library", mm.Spec.Module.ID)

	mm, err = src.ReadManifest(ctx, "configmap://media/modules/audio.yaml")
	require.NoError(t, err)
	assert.Equal(t, "bindery.audio", mm.Spec.Module.ID)

	for _, bad := range []string{
		"k8s://media/missing",
		"k8s://media",
		"configmap://media/modules/other.yaml",
		"configmap://media/modules",
		"s3://bucket/key",
		"media/library",
	} {
		_, err := src.ReadManifest(ctx, bad)
		assert.Error(t, err, bad)
	}
}

func TestRouter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "audio.yaml"), []byte(audioManifest), 0o644))

	connects := 0
	r := &Router{
		File: &FileSource{Root: dir},
		Cluster: func() (*ClusterSource, error) {
			connects++
			return clusterFixture(), nil
		},
	}
	ctx := context.Background()

	mm, err := r.ReadManifest(ctx, "audio.yaml")
	require.NoError(t, err)
	assert.Equal(t, "bindery.audio", mm.Spec.Module.ID)
	assert.Equal(t, 0, connects)

	_, err = r.ReadManifest(ctx, "k8s://media/library")
	require.NoError(t, err)
	_, err = r.ReadManifest(ctx, "configmap://media/modules/audio.yaml")
	require.NoError(t, err)
	assert.Equal(t, 1, connects)

	_, err = r.ReadManifest(ctx, "s3://bucket/key")
	assert.Error(t, err)

	_, err = (&Router{}).ReadManifest(ctx, "k8s://media/library")
	assert.Error(t, err)
}
