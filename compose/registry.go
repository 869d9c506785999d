package compose

import (
	"context"

	"sigs.k8s.io/controller-runtime/pkg/log"

	v1alpha1 "github.com/bayleafwalker/bindery-compose/api/v1alpha1"
	"github.com/bayleafwalker/bindery-compose/internal/semver"
)

// ManifestReader fetches a ModuleManifest from a location such as a file path
// or a cluster URL.
type ManifestReader interface {
	ReadManifest(ctx context.Context, location string) (*v1alpha1.ModuleManifest, error)
}

// LoadedModule is a module selected for a composition run.
type LoadedModule struct {
	Module *Module
	// Dependencies are the module's own dependencies plus any declared by the
	// manifest it was loaded through.
	Dependencies []Dependency
	Plugin       bool

	version semver.Version
}

type loadRequest struct {
	ref           string
	name          string
	version       semver.Version
	requirePlugin bool
	extraDeps     []Dependency
	plugin        bool
}

// registry resolves root references and their plugin closure. It is used for
// a single run only.
type registry struct {
	catalog *Catalog
	reader  ManifestReader
	policy  semver.Policy

	loaded map[string][]*LoadedModule
	order  []*LoadedModule
}

func newRegistry(catalog *Catalog, reader ManifestReader, policy semver.Policy) *registry {
	if catalog == nil {
		catalog = &Catalog{byName: map[string][]catalogEntry{}}
	}
	return &registry{
		catalog: catalog,
		reader:  reader,
		policy:  policy,
		loaded:  map[string][]*LoadedModule{},
	}
}

// load resolves every root and the transitive plugin closure, returning the
// loaded modules in load order.
func (r *registry) load(ctx context.Context, roots []string) ([]*LoadedModule, error) {
	logger := log.FromContext(ctx)

	queue := make([]loadRequest, 0, len(roots))
	for _, root := range roots {
		req, err := r.rootRequest(ctx, root)
		if err != nil {
			return nil, err
		}
		queue = append(queue, req)
	}

	for len(queue) > 0 {
		req := queue[0]
		queue = queue[1:]

		lm, fresh, err := r.resolve(req)
		if err != nil {
			return nil, err
		}
		if req.plugin {
			lm.Plugin = true
		}
		if len(req.extraDeps) > 0 {
			lm.Dependencies = append(lm.Dependencies, req.extraDeps...)
			fresh = true
		}
		if req.requirePlugin && !lm.Plugin {
			return nil, &ModuleLoadError{Reference: req.ref, Reason: "resolved module " + lm.Module.String() + " is not a plugin module"}
		}
		if !fresh {
			continue
		}
		logger.V(1).Info("module loaded", "module", lm.Module.Name, "version", lm.version.String(), "plugin", lm.Plugin)

		for _, dep := range lm.Dependencies {
			if !dep.Plugin {
				continue
			}
			v, err := parseRequested(dep.Version)
			if err != nil {
				return nil, &ModuleLoadError{Reference: formatReference(dep.Name, dep.Version), Reason: "invalid version", Err: err}
			}
			queue = append(queue, loadRequest{
				ref:           formatReference(dep.Name, dep.Version),
				name:          dep.Name,
				version:       v,
				requirePlugin: true,
			})
		}
	}

	return r.order, nil
}

func (r *registry) rootRequest(ctx context.Context, root string) (loadRequest, error) {
	ref, err := ParseReference(root)
	if err != nil {
		return loadRequest{}, &ModuleLoadError{Reference: root, Reason: "invalid reference", Err: err}
	}
	if ref.Location == "" {
		v, _ := parseRequested(ref.Version)
		return loadRequest{ref: root, name: ref.Name, version: v}, nil
	}

	if r.reader == nil {
		return loadRequest{}, &ModuleLoadError{Reference: root, Reason: "no manifest reader configured"}
	}
	manifest, err := r.reader.ReadManifest(ctx, ref.Location)
	if err != nil {
		return loadRequest{}, &ModuleLoadError{Reference: root, Reason: "read manifest", Err: err}
	}
	v, err := parseRequested(manifest.Spec.Module.Version)
	if err != nil {
		return loadRequest{}, &ModuleLoadError{Reference: root, Reason: "invalid manifest version", Err: err}
	}
	req := loadRequest{
		ref:     root,
		name:    manifest.Spec.Module.ID,
		version: v,
		plugin:  manifest.Spec.Plugin,
	}
	for _, d := range manifest.Spec.Dependencies {
		req.extraDeps = append(req.extraDeps, Dependency{Name: d.ID, Version: d.Version, Plugin: d.Plugin})
	}
	return req, nil
}

// resolve checks the by-name cache (exact version first, then any equivalent
// one) before falling back to the catalog. fresh is true when the module was
// not loaded before.
func (r *registry) resolve(req loadRequest) (lm *LoadedModule, fresh bool, err error) {
	cached := r.loaded[req.name]
	for _, c := range cached {
		if !req.version.IsZero() && semver.Compare(c.version, req.version) == 0 {
			return c, false, nil
		}
	}
	for _, c := range cached {
		if r.policy(req.version, c.version) {
			return c, false, nil
		}
	}

	entry, ok := r.catalog.find(req.name, req.version, r.policy)
	if !ok {
		return nil, false, &ModuleLoadError{Reference: req.ref, Reason: "no compatible module version available"}
	}

	lm = &LoadedModule{
		Module:       entry.module,
		Dependencies: append([]Dependency(nil), entry.module.Dependencies...),
		Plugin:       entry.module.Plugin,
		version:      entry.version,
	}
	r.loaded[req.name] = append(r.loaded[req.name], lm)
	r.order = append(r.order, lm)
	return lm, true, nil
}
