package compose_test

import (
	"context"
	"errors"
	"fmt"

	v1alpha1 "github.com/bayleafwalker/bindery-compose/api/v1alpha1"
	"github.com/bayleafwalker/bindery-compose/compose"
)

type Greeter interface {
	Greet() string
}

type Store interface {
	Get(key string) string
}

type Config struct {
	Prefix string
}

var (
	greeterContract = compose.ContractOf[Greeter]()
	storeContract   = compose.ContractOf[Store](compose.AsSingleton())
)

type memoryStore struct {
	prefix string
}

func newMemoryStore(cfg *Config) *memoryStore {
	return &memoryStore{prefix: cfg.Prefix}
}

func (s *memoryStore) Get(key string) string { return s.prefix + key }

type fileStore struct{}

func newFileStore() *fileStore { return &fileStore{} }

func (s *fileStore) Get(key string) string { return key }

type english struct{ store Store }

func newEnglish(store Store) *english { return &english{store: store} }

func (g *english) Greet() string { return g.store.Get("hello") }

type german struct{}

func newGerman() *german { return &german{} }

func (g *german) Greet() string { return "hallo" }

// chorus implements no contract, so it has to be declared explicitly.
type chorus struct {
	greeters []Greeter
}

func newChorus(greeters []Greeter) *chorus { return &chorus{greeters: greeters} }

func (c *chorus) Sing() []string {
	out := make([]string, 0, len(c.greeters))
	for _, g := range c.greeters {
		out = append(out, g.Greet())
	}
	return out
}

type Ping interface{ Ping() }
type Pong interface{ Pong() }

type pinger struct{}

func newPinger(Pong) *pinger { return &pinger{} }

func (*pinger) Ping() {}

type ponger struct{}

func newPonger(Ping) *ponger { return &ponger{} }

func (*ponger) Pong() {}

var errBroken = errors.New("device missing")

type brokenGreeter struct{}

func newBrokenGreeter() (*brokenGreeter, error) { return nil, errBroken }

func (*brokenGreeter) Greet() string { return "" }

func greetingsModule() *compose.Module {
	return &compose.Module{
		Name:      "greetings",
		Version:   "1.0.0",
		Contracts: []compose.Contract{greeterContract, storeContract},
		Components: []compose.Component{
			compose.NewComponent(newMemoryStore),
			compose.NewComponent(newEnglish),
			compose.NewComponent(newGerman),
			compose.NewComponent(newChorus, compose.Explicit()),
		},
	}
}

func mustCatalog(modules ...*compose.Module) *compose.Catalog {
	c, err := compose.NewCatalog(modules...)
	if err != nil {
		panic(err)
	}
	return c
}

func identity(ctor any) string {
	return compose.NewComponent(ctor).Identity()
}

type stubReader map[string]*v1alpha1.ModuleManifest

func (r stubReader) ReadManifest(_ context.Context, location string) (*v1alpha1.ModuleManifest, error) {
	m, ok := r[location]
	if !ok {
		return nil, fmt.Errorf("manifest %s not found", location)
	}
	return m, nil
}
