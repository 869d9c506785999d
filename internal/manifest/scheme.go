// Package manifest decodes composer manifests and fetches them from files or
// a cluster.
package manifest

import (
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/serializer"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/apimachinery/pkg/util/validation/field"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"

	v1alpha1 "github.com/bayleafwalker/bindery-compose/api/v1alpha1"
	"github.com/bayleafwalker/bindery-compose/internal/semver"
)

var (
	// Scheme knows the composer kinds and the core kinds (ConfigMap) that
	// manifests can be stored in.
	Scheme = runtime.NewScheme()
	codecs = serializer.NewCodecFactory(Scheme)
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(Scheme))
	utilruntime.Must(v1alpha1.AddToScheme(Scheme))
}

// Decode parses a YAML or JSON document of any kind registered in Scheme.
func Decode(data []byte) (runtime.Object, error) {
	obj, _, err := codecs.UniversalDeserializer().Decode(data, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("manifest: decode: %w", err)
	}
	return obj, nil
}

// DecodeModuleManifest parses and validates a ModuleManifest document.
func DecodeModuleManifest(data []byte) (*v1alpha1.ModuleManifest, error) {
	obj, err := Decode(data)
	if err != nil {
		return nil, err
	}
	mm, ok := obj.(*v1alpha1.ModuleManifest)
	if !ok {
		return nil, fmt.Errorf("manifest: expected ModuleManifest, got %T", obj)
	}
	if err := ValidateModuleManifest(mm).ToAggregate(); err != nil {
		return nil, err
	}
	return mm, nil
}

// DecodeComposition parses and validates a Composition document.
func DecodeComposition(data []byte) (*v1alpha1.Composition, error) {
	obj, err := Decode(data)
	if err != nil {
		return nil, err
	}
	c, ok := obj.(*v1alpha1.Composition)
	if !ok {
		return nil, fmt.Errorf("manifest: expected Composition, got %T", obj)
	}
	if err := ValidateComposition(c).ToAggregate(); err != nil {
		return nil, err
	}
	return c, nil
}

func ValidateModuleManifest(mm *v1alpha1.ModuleManifest) field.ErrorList {
	var errs field.ErrorList
	spec := field.NewPath("spec")

	if mm.Spec.Module.ID == "" {
		errs = append(errs, field.Required(spec.Child("module", "id"), "module id is required"))
	}
	errs = append(errs, validateVersion(spec.Child("module", "version"), mm.Spec.Module.Version)...)

	seen := map[string]bool{}
	for i, d := range mm.Spec.Dependencies {
		p := spec.Child("dependencies").Index(i)
		if d.ID == "" {
			errs = append(errs, field.Required(p.Child("id"), "dependency id is required"))
			continue
		}
		if seen[d.ID] {
			errs = append(errs, field.Duplicate(p.Child("id"), d.ID))
		}
		seen[d.ID] = true
		if d.ID == mm.Spec.Module.ID {
			errs = append(errs, field.Invalid(p.Child("id"), d.ID, "a module cannot depend on itself"))
		}
		errs = append(errs, validateVersion(p.Child("version"), d.Version)...)
	}
	return errs
}

func ValidateComposition(c *v1alpha1.Composition) field.ErrorList {
	var errs field.ErrorList
	spec := field.NewPath("spec")

	if len(c.Spec.Modules) == 0 {
		errs = append(errs, field.Required(spec.Child("modules"), "at least one module is required"))
	}
	for i, m := range c.Spec.Modules {
		if m == "" {
			errs = append(errs, field.Required(spec.Child("modules").Index(i), "module reference is empty"))
		}
	}
	for i, x := range c.Spec.Exclude {
		if x == "" {
			errs = append(errs, field.Required(spec.Child("exclude").Index(i), "exclusion is empty"))
		}
	}
	return errs
}

func validateVersion(p *field.Path, raw string) field.ErrorList {
	if raw == "" {
		return nil
	}
	if _, err := semver.ParseVersion(raw); err != nil {
		return field.ErrorList{field.Invalid(p, raw, err.Error())}
	}
	return nil
}
