package compose

import (
	"errors"
	"reflect"

	"k8s.io/apimachinery/pkg/util/sets"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// param is one classified constructor parameter.
type param struct {
	typ reflect.Type
	// key is the registry key: the element contract for collections, the
	// parameter type otherwise.
	key  reflect.Type
	many bool
}

// componentInfo is an eligible component with its validated constructor.
type componentInfo struct {
	name      string
	module    *Module
	ctor      reflect.Value
	product   reflect.Type
	withError bool
	contracts []Contract
	params    []param
}

type scanResult struct {
	contracts []Contract
	byType    map[reflect.Type]Contract
	// components are in module load order, then declaration order.
	components []*componentInfo
	skipped    []string
}

type scanner struct {
	exclude sets.Set[string]
	goos    string
	goarch  string
}

// scan collects contracts from every loaded module before it looks at any
// component, so a component may implement a contract declared by a module
// loaded after its own.
func (s *scanner) scan(modules []*LoadedModule) (*scanResult, error) {
	res := &scanResult{byType: map[reflect.Type]Contract{}}
	for _, lm := range modules {
		for _, c := range lm.Module.Contracts {
			if c.typ == nil {
				continue
			}
			if existing, ok := res.byType[c.typ]; ok {
				if c.singleton && !existing.singleton {
					existing.singleton = true
					res.byType[c.typ] = existing
					for i := range res.contracts {
						if res.contracts[i].typ == c.typ {
							res.contracts[i].singleton = true
						}
					}
				}
				continue
			}
			res.byType[c.typ] = c
			res.contracts = append(res.contracts, c)
		}
	}

	var errs []error
	for _, lm := range modules {
		for _, comp := range lm.Module.Components {
			name := comp.Identity()
			if s.exclude.Has(name) {
				res.skipped = append(res.skipped, name)
				continue
			}
			if !comp.matchesPlatform(s.goos, s.goarch) {
				res.skipped = append(res.skipped, name)
				continue
			}

			info, err := inspectConstructor(name, comp)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			info.module = lm.Module
			for _, c := range res.contracts {
				if info.product.Implements(c.typ) {
					info.contracts = append(info.contracts, c)
				}
			}
			if !comp.Explicit && len(info.contracts) == 0 {
				continue
			}
			info.params = classifyParams(info.ctor.Type(), res.byType)
			res.components = append(res.components, info)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return res, nil
}

func inspectConstructor(name string, comp Component) (*componentInfo, error) {
	if len(comp.Constructors) != 1 {
		reason := "no constructor declared"
		if len(comp.Constructors) > 1 {
			reason = "more than one constructor declared"
		}
		return nil, &AmbiguousConstructorError{Component: name, Count: len(comp.Constructors), Reason: reason}
	}

	v := reflect.ValueOf(comp.Constructors[0])
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, &AmbiguousConstructorError{Component: name, Count: 1, Reason: "constructor is not a function"}
	}
	t := v.Type()
	if t.IsVariadic() {
		return nil, &AmbiguousConstructorError{Component: name, Count: 1, Reason: "variadic constructors are not supported"}
	}

	info := &componentInfo{name: name, ctor: v}
	switch {
	case t.NumOut() == 1 && t.Out(0) != errorType:
	case t.NumOut() == 2 && t.Out(0) != errorType && t.Out(1) == errorType:
		info.withError = true
	default:
		return nil, &AmbiguousConstructorError{Component: name, Count: 1, Reason: "constructor must return T or (T, error)"}
	}
	info.product = t.Out(0)
	return info, nil
}

func classifyParams(t reflect.Type, contracts map[reflect.Type]Contract) []param {
	params := make([]param, t.NumIn())
	for i := range params {
		in := t.In(i)
		params[i] = param{typ: in, key: in}
		if in.Kind() == reflect.Slice {
			if _, ok := contracts[in.Elem()]; ok {
				params[i].key = in.Elem()
				params[i].many = true
			}
		}
	}
	return params
}
