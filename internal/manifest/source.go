package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/log"

	v1alpha1 "github.com/bayleafwalker/bindery-compose/api/v1alpha1"
)

const (
	SchemeFile      = "file"
	SchemeCluster   = "k8s"
	SchemeConfigMap = "configmap"
)

// FileSource reads manifests from the local filesystem. Relative paths are
// resolved against Root when it is set.
type FileSource struct {
	Root string
}

func (s *FileSource) ReadManifest(ctx context.Context, location string) (*v1alpha1.ModuleManifest, error) {
	path := strings.TrimPrefix(location, SchemeFile+"://")
	if s.Root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(s.Root, path)
	}
	log.FromContext(ctx).V(1).Info("reading module manifest", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	return DecodeModuleManifest(data)
}

// ReadComposition loads a Composition document from path.
func ReadComposition(path string) (*v1alpha1.Composition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	return DecodeComposition(data)
}

// ClusterSource reads manifests stored in a cluster:
//
//	k8s://<namespace>/<name>                ModuleManifest object
//	configmap://<namespace>/<name>/<key>    ModuleManifest document in a ConfigMap
type ClusterSource struct {
	Client client.Reader
}

func (s *ClusterSource) ReadManifest(ctx context.Context, location string) (*v1alpha1.ModuleManifest, error) {
	scheme, remainder, ok := strings.Cut(location, "://")
	if !ok {
		return nil, fmt.Errorf("manifest: %q is not a cluster location", location)
	}
	parts := strings.Split(remainder, "/")

	switch scheme {
	case SchemeCluster:
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("manifest: expected k8s://<namespace>/<name>, got %q", location)
		}
		var mm v1alpha1.ModuleManifest
		key := types.NamespacedName{Namespace: parts[0], Name: parts[1]}
		if err := s.Client.Get(ctx, key, &mm); err != nil {
			return nil, fmt.Errorf("manifest: get ModuleManifest %s: %w", key, err)
		}
		if err := ValidateModuleManifest(&mm).ToAggregate(); err != nil {
			return nil, err
		}
		return &mm, nil

	case SchemeConfigMap:
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("manifest: expected configmap://<namespace>/<name>/<key>, got %q", location)
		}
		var cm corev1.ConfigMap
		key := types.NamespacedName{Namespace: parts[0], Name: parts[1]}
		if err := s.Client.Get(ctx, key, &cm); err != nil {
			return nil, fmt.Errorf("manifest: get ConfigMap %s: %w", key, err)
		}
		data, ok := cm.Data[parts[2]]
		if !ok {
			return nil, fmt.Errorf("manifest: ConfigMap %s has no key %q", key, parts[2])
		}
		return DecodeModuleManifest([]byte(data))

	default:
		return nil, fmt.Errorf("manifest: unsupported scheme %q", scheme)
	}
}

// Router dispatches a location to the source registered for its scheme.
// Locations without a scheme go to the file source.
type Router struct {
	File *FileSource
	// Cluster is created on first use so that local runs never need a
	// kubeconfig.
	Cluster func() (*ClusterSource, error)

	cluster *ClusterSource
}

func (r *Router) ReadManifest(ctx context.Context, location string) (*v1alpha1.ModuleManifest, error) {
	scheme, _, ok := strings.Cut(location, "://")
	if !ok || scheme == SchemeFile {
		file := r.File
		if file == nil {
			file = &FileSource{}
		}
		return file.ReadManifest(ctx, location)
	}

	switch scheme {
	case SchemeCluster, SchemeConfigMap:
		if r.cluster == nil {
			if r.Cluster == nil {
				return nil, fmt.Errorf("manifest: no cluster source configured for %q", location)
			}
			cs, err := r.Cluster()
			if err != nil {
				return nil, fmt.Errorf("manifest: connect to cluster: %w", err)
			}
			r.cluster = cs
		}
		return r.cluster.ReadManifest(ctx, location)
	default:
		return nil, fmt.Errorf("manifest: unsupported scheme %q", scheme)
	}
}

// NewClusterSource returns a cluster-backed source for the config getConfig
// returns, typically ctrl.GetConfig.
func NewClusterSource(getConfig func() (*rest.Config, error)) (*ClusterSource, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	c, err := client.New(cfg, client.Options{Scheme: Scheme})
	if err != nil {
		return nil, err
	}
	return &ClusterSource{Client: c}, nil
}
