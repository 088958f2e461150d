// Package provider implements a small generic framework for swappable
// backends: a registry for factory-based instantiation plus selection
// strategies for picking an available provider at runtime.
//
// The transcription engines register here, so "use whisper if it is
// reachable, otherwise fall back to the remote engine" is a
// PrioritySelector over initialized providers.
//
// # Usage
//
//	reg := provider.NewRegistry[MyProvider]()
//	reg.RegisterFactory("default", myFactory)
//	mgr := provider.NewManager(reg, &provider.HealthCheckSelector[MyProvider]{})
//	mgr.Initialize("default", cfg)
//	p, _ := mgr.Get(ctx)
package provider
