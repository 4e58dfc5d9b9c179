// Package pkg provides the core libraries of kintree, a family tree record
// keeper.
//
// # Overview
//
// Kintree stores members and directed relationship edges, keeps every edge
// mirrored, infers each member's spouses, parents and children from the
// edges, orders members so that families stay together, and lays the tree
// out with couples side by side and children one generation below.
//
// # Architecture
//
// The data flow from a request to a drawing:
//
//	HTTP API / CLI
//	     ↓
//	[service] (use cases: members, relations, tree, dashboard, seed)
//	     ↓
//	[relation] (edge normalizer)  [inference] (family views)  [treesort] (tree order)
//	     ↓
//	[store] (memory, SQLite/Postgres, MongoDB)
//	     ↓
//	[pipeline] → [layout] (units, generations, placement) → [render/nodelink] (DOT, SVG)
//	     ↓
//	[cache] (file or Redis, keyed by tree hash)
//
// # Quick Start
//
// Record a couple and their child, then lay the tree out:
//
//	s := memory.New()
//	svc := service.New(s, nil, nil)
//	svc.InstallMasters(ctx)
//
//	bob, _ := svc.CreateMember(ctx, family.Member{FirstName: "Bob", LastName: "Smith", Gender: family.GenderMale})
//	alice, _ := svc.CreateMember(ctx, family.Member{FirstName: "Alice", LastName: "Smith", Gender: family.GenderFemale})
//	carol, _ := svc.CreateMember(ctx, family.Member{FirstName: "Carol", LastName: "Smith"})
//	svc.Link(ctx, bob.ID, alice.ID, family.CodeSpouse)
//	svc.Link(ctx, bob.ID, carol.ID, family.CodeFather)
//
//	res, _ := svc.Layout(ctx, pipeline.Options{Formats: []string{"svg"}})
//	os.WriteFile("tree.svg", res.Artifacts["svg"], 0o644)
//
// # Main Packages
//
// Domain:
//   - [family]: members, relation masters, edges and family views
//   - [relation]: creates and deletes edges together with their mirrors
//   - [inference]: resolves a member's family from the edges around it
//   - [treesort]: orders members depth first through couples and children
//
// Layout:
//   - [dag]: layered graph structure used by the placer
//   - [layout]: groups couples into units, assigns generations, places them
//   - [graph]: serialization types for tree data and layouts
//   - [pipeline]: layout → render with caching
//
// Infrastructure:
//   - [store]: persistence boundary and its backends
//   - [cache]: layout and artifact cache
//   - [config]: TOML and environment configuration
//   - [observability]: hooks for metrics, with a Prometheus implementation
//   - [errors]: error codes shared by every layer
//   - [api]: the HTTP API
//   - [io]: JSON import and export
//
// [family]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/family
// [relation]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/relation
// [inference]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/inference
// [treesort]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/treesort
// [dag]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/dag
// [layout]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/layout
// [graph]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/graph
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/pipeline
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/render/nodelink
// [store]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/errors
// [api]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/api
// [io]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/io
// [service]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/service
package pkg
