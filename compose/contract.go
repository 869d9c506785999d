package compose

import (
	"fmt"
	"reflect"
)

// Contract is a capability components can implement and depend on. Its
// identity is a Go interface type.
type Contract struct {
	typ       reflect.Type
	singleton bool
}

type ContractOption func(*Contract)

// AsSingleton limits the contract to a single registered instance.
func AsSingleton() ContractOption {
	return func(c *Contract) {
		c.singleton = true
	}
}

// ContractOf declares the interface T as a contract. It panics if T is not an
// interface type, since that is a declaration mistake rather than a runtime
// condition.
func ContractOf[T any](opts ...ContractOption) Contract {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Interface {
		panic(fmt.Sprintf("compose: contract type %s is not an interface", t))
	}
	c := Contract{typ: t}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c Contract) Type() reflect.Type {
	return c.typ
}

func (c Contract) Singleton() bool {
	return c.singleton
}

func (c Contract) String() string {
	return typeName(c.typ)
}

// typeName renders <pkgpath>.<Name> for named types, looking through one
// level of pointer.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Name() != "" && base.PkgPath() != "" {
		return base.PkgPath() + "." + base.Name()
	}
	return t.String()
}
