package v1alpha1

// ModuleIdentity names a module and the version it is published at.
type ModuleIdentity struct {
	ID      string `json:"id"`
	Version string `json:"version,omitempty"`
}

// ModuleDependency references another module.
//
// Only plugin dependencies are followed when the load closure is computed.
type ModuleDependency struct {
	ID      string `json:"id"`
	Version string `json:"version,omitempty"`
	Plugin  bool   `json:"plugin,omitempty"`
}

// Reference renders the dependency the way the composer accepts module
// references: "id" or "id@version".
func (d ModuleDependency) Reference() string {
	if d.Version == "" {
		return d.ID
	}
	return d.ID + "@" + d.Version
}
