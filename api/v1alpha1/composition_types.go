package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Composition describes one composition run: the root modules to load and the
// components to leave out.
//
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:resource:scope=Namespaced,shortName=comp
// +kubebuilder:printcolumn:name="Platform",type=string,JSONPath=`.spec.platform`
// +kubebuilder:printcolumn:name="Phase",type=string,JSONPath=`.status.phase`
// +kubebuilder:printcolumn:name="Components",type=integer,JSONPath=`.status.components`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`
type Composition struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   CompositionSpec   `json:"spec"`
	Status CompositionStatus `json:"status,omitempty"`
}

type CompositionSpec struct {
	// Modules are module references ("id", "id@version") or manifest locations.
	Modules []string `json:"modules"`
	// Exclude lists fully-qualified component identities.
	Exclude []string `json:"exclude,omitempty"`
	// Platform overrides the runtime platform ("linux", "darwin/arm64").
	Platform string `json:"platform,omitempty"`
	// AllowUnresolved injects zero values for dependencies nothing can satisfy.
	AllowUnresolved bool `json:"allowUnresolved,omitempty"`
}

const (
	CompositionPhasePlanned = "Planned"
	CompositionPhaseError   = "Error"

	ConditionModulesLoaded        = "ModulesLoaded"
	ConditionDependenciesResolved = "DependenciesResolved"
)

// CompositionStatus is written by the composition controller after planning
// the composition against the modules compiled into it.
type CompositionStatus struct {
	ObservedGeneration int64  `json:"observedGeneration,omitempty"`
	Phase              string `json:"phase,omitempty"`
	Message            string `json:"message,omitempty"`
	// Modules lists loaded modules as id@version in load order.
	Modules []string `json:"modules,omitempty"`
	// Components is the number of components that would be built.
	Components int32 `json:"components,omitempty"`
	// Unresolved lists required dependencies nothing provides.
	Unresolved []string           `json:"unresolved,omitempty"`
	Conditions []metav1.Condition `json:"conditions,omitempty"`
}

// +kubebuilder:object:root=true
type CompositionList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Composition `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Composition{}, &CompositionList{})
}
