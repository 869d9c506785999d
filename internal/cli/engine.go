package cli

import (
	"path/filepath"
	"slices"

	"github.com/spf13/pflag"
	ctrl "sigs.k8s.io/controller-runtime"

	v1alpha1 "github.com/bayleafwalker/bindery-compose/api/v1alpha1"
	"github.com/bayleafwalker/bindery-compose/compose"
	"github.com/bayleafwalker/bindery-compose/internal/manifest"
	"github.com/bayleafwalker/bindery-compose/modules/builtin"
)

const (
	FlagComposition     = "composition"
	FlagModule          = "module"
	FlagExclude         = "exclude"
	FlagPlatform        = "platform"
	FlagAllowUnresolved = "allow-unresolved"
	FlagExactVersions   = "exact-versions"
	FlagManifestRoot    = "manifest-root"
)

// composeFlags are shared by every command that runs the engine. Flags are
// merged into the composition file when one is given.
type composeFlags struct {
	file            string
	modules         []string
	exclude         []string
	platform        string
	allowUnresolved bool
	exactVersions   bool
	manifestRoot    string
}

func (f *composeFlags) bind(fs *pflag.FlagSet) {
	fs.StringVarP(&f.file, FlagComposition, "f", "", "Composition file to load.")
	fs.StringSliceVar(&f.modules, FlagModule, nil, `Root module reference ("name", "name@version") or manifest location. Repeatable.`)
	fs.StringSliceVar(&f.exclude, FlagExclude, nil, "Component identity to leave out. Repeatable.")
	fs.StringVar(&f.platform, FlagPlatform, "", `Platform to filter components by, as "GOOS" or "GOOS/GOARCH". Defaults to the host.`)
	fs.BoolVar(&f.allowUnresolved, FlagAllowUnresolved, false, "Inject zero values for dependencies nothing provides instead of failing.")
	fs.BoolVar(&f.exactVersions, FlagExactVersions, false, "Only load the exact module versions requested.")
	fs.StringVar(&f.manifestRoot, FlagManifestRoot, "", "Directory relative manifest paths are resolved against. Defaults to the composition file's directory.")
}

func (f *composeFlags) spec() (v1alpha1.CompositionSpec, string, error) {
	var spec v1alpha1.CompositionSpec
	root := f.manifestRoot
	if f.file != "" {
		c, err := manifest.ReadComposition(f.file)
		if err != nil {
			return spec, "", err
		}
		spec = c.Spec
		if root == "" {
			root = filepath.Dir(f.file)
		}
	}

	spec.Modules = slices.Concat(spec.Modules, f.modules)
	if len(spec.Modules) == 0 {
		spec.Modules = []string{builtin.PlayerModuleName}
	}
	spec.Exclude = slices.Concat(spec.Exclude, f.exclude)
	if f.platform != "" {
		spec.Platform = f.platform
	}
	spec.AllowUnresolved = spec.AllowUnresolved || f.allowUnresolved
	return spec, root, nil
}

func (f *composeFlags) newEngine(catalog *compose.Catalog) (*compose.Engine, error) {
	spec, root, err := f.spec()
	if err != nil {
		return nil, err
	}

	reader := &manifest.Router{
		File: &manifest.FileSource{Root: root},
		Cluster: func() (*manifest.ClusterSource, error) {
			return manifest.NewClusterSource(ctrl.GetConfig)
		},
	}
	opts := []compose.Option{
		compose.WithManifestReader(reader),
		compose.WithPlatform(spec.Platform),
	}
	if spec.AllowUnresolved {
		opts = append(opts, compose.WithZeroValueForUnresolved())
	}
	if f.exactVersions {
		opts = append(opts, compose.WithVersionPolicy(compose.ExactVersions))
	}

	engine := compose.NewEngine(catalog, opts...)
	engine.QueueLoad(spec.Modules...)
	engine.Exclude(spec.Exclude...)
	return engine, nil
}
