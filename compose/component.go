package compose

import (
	"reflect"
	"runtime"
	"strings"
)

// Component is the static declaration of an execution unit.
//
// A component needs exactly one constructor: a non-variadic function that
// returns the instance, optionally followed by an error. The constructor's
// parameters are the component's dependencies. A parameter of type []E where
// E is a declared contract receives every instance registered under E so far;
// any other parameter receives the single instance registered under its type.
type Component struct {
	// Name is the fully-qualified identity used for exclusion. It defaults to
	// <pkgpath>.<TypeName> of the constructor's product type.
	Name         string
	Constructors []any
	// Platforms restricts the component to "GOOS" or "GOOS/GOARCH" entries.
	// Empty means every platform.
	Platforms []string
	// Explicit makes the component eligible even when it implements no
	// declared contract.
	Explicit bool
}

type ComponentOption func(*Component)

func WithName(name string) ComponentOption {
	return func(c *Component) {
		c.Name = name
	}
}

func OnPlatforms(platforms ...string) ComponentOption {
	return func(c *Component) {
		c.Platforms = append(c.Platforms, platforms...)
	}
}

func Explicit() ComponentOption {
	return func(c *Component) {
		c.Explicit = true
	}
}

// NewComponent declares a component built by ctor.
func NewComponent(ctor any, opts ...ComponentOption) Component {
	c := Component{Constructors: []any{ctor}}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Identity returns the name used for exclusion and error reporting.
func (c Component) Identity() string {
	if c.Name != "" {
		return c.Name
	}
	if len(c.Constructors) == 0 {
		return "<component without constructor>"
	}
	t := reflect.TypeOf(c.Constructors[0])
	if t == nil || t.Kind() != reflect.Func {
		return "<invalid constructor>"
	}
	if t.NumOut() > 0 {
		return typeName(t.Out(0))
	}
	if fn := runtime.FuncForPC(reflect.ValueOf(c.Constructors[0]).Pointer()); fn != nil {
		return fn.Name()
	}
	return t.String()
}

// matchesPlatform reports whether any entry names goos or goos/goarch.
func (c Component) matchesPlatform(goos, goarch string) bool {
	if len(c.Platforms) == 0 {
		return true
	}
	for _, p := range c.Platforms {
		entryOS, entryArch, hasArch := strings.Cut(strings.TrimSpace(p), "/")
		if entryOS != goos {
			continue
		}
		if !hasArch || entryArch == goarch {
			return true
		}
	}
	return false
}
