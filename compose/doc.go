// Package compose builds an application out of modules.
//
// Modules declare contracts (interface types) and components (types with a
// single constructor). An Engine loads the requested modules and their plugin
// dependencies from a Catalog, links every eligible component to the
// components its constructor parameters need, orders construction so that
// dependencies come first and builds each component once. The result is an
// ImplementationMap from contract to instances.
//
//	catalog, _ := compose.NewCatalog(audio.Module(), library.Module())
//	engine := compose.NewEngine(catalog)
//	engine.QueueLoad("bindery.library")
//	engine.Supply(cfg)
//	impls, err := engine.Execute(ctx)
//	player, ok := compose.TryGetSingleton[audio.Player](impls)
//
// A run is all or nothing: any failure aborts it and no map is returned.
package compose
