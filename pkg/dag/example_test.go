package dag_test

import (
	"fmt"

	"github.com/aurwrap/aurwrap/pkg/dag"
)

func ExampleDAG_Toposort() {
	// Edges point dependency -> dependent, so the sort yields a build order.
	g := dag.New()
	_ = g.AddNode("glibc-git")
	_ = g.AddNode("libfoo")
	_ = g.AddNode("app")
	_ = g.AddEdge("glibc-git", "libfoo")
	_ = g.AddEdge("libfoo", "app")

	order, _ := g.Toposort()
	fmt.Println(order)
	// Output:
	// [glibc-git libfoo app]
}

func ExampleDAG_traversal() {
	g := dag.New()
	_ = g.AddNode("lib")
	_ = g.AddNode("app")
	_ = g.AddNode("tool")
	_ = g.AddEdge("lib", "app")
	_ = g.AddEdge("lib", "tool")

	fmt.Println("Children of lib:", g.Children("lib"))
	fmt.Println("Parents of app:", g.Parents("app"))
	// Output:
	// Children of lib: [app tool]
	// Parents of app: [lib]
}
