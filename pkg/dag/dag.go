// Package dag implements a directed acyclic graph for dependency ordering.
//
// Nodes are stored in an arena indexed by integer handle; edges are stored
// as index pairs. String IDs map to handles through a lookup table, so the
// graph never holds node-to-node references. [DAG.Toposort] produces a
// dependency-first ordering or reports a cycle participant.
package dag

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist in the graph.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// CycleError is returned by [DAG.Toposort] when the graph is not acyclic.
// Node names one participant of a cycle for diagnostics.
type CycleError struct {
	Node string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle involving %q", e.Node)
}

// DAG is a directed graph over string-identified nodes.
//
// The zero value is not usable - use New to create a valid instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	ids      []string       // arena: handle -> node ID
	index    map[string]int // node ID -> handle
	edges    [][2]int       // (from, to) handle pairs
	outgoing [][]int        // handle -> child handles
	incoming [][]int        // handle -> parent handles
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{index: make(map[string]int)}
}

// AddNode adds a node to the graph. Returns ErrInvalidNodeID if the ID is
// empty, or ErrDuplicateNodeID if a node with the same ID already exists.
func (d *DAG) AddNode(id string) error {
	if id == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.index[id]; exists {
		return ErrDuplicateNodeID
	}
	d.index[id] = len(d.ids)
	d.ids = append(d.ids, id)
	d.outgoing = append(d.outgoing, nil)
	d.incoming = append(d.incoming, nil)
	return nil
}

// AddEdge adds a directed edge between two existing nodes.
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode if an endpoint is
// missing. Multiple edges between the same nodes are allowed; they do not
// change the ordering semantics.
func (d *DAG) AddEdge(from, to string) error {
	f, ok := d.index[from]
	if !ok {
		return ErrUnknownSourceNode
	}
	t, ok := d.index[to]
	if !ok {
		return ErrUnknownTargetNode
	}
	d.edges = append(d.edges, [2]int{f, t})
	d.outgoing[f] = append(d.outgoing[f], t)
	d.incoming[t] = append(d.incoming[t], f)
	return nil
}

// HasNode reports whether a node with the given ID exists.
func (d *DAG) HasNode(id string) bool {
	_, ok := d.index[id]
	return ok
}

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.ids) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Nodes returns the IDs of all nodes in insertion order.
func (d *DAG) Nodes() []string {
	out := make([]string, len(d.ids))
	copy(out, d.ids)
	return out
}

// Children returns the IDs of nodes this node has edges to.
// Returns nil if the node has no children or doesn't exist.
func (d *DAG) Children(id string) []string {
	h, ok := d.index[id]
	if !ok {
		return nil
	}
	return d.resolve(d.outgoing[h])
}

// Parents returns the IDs of nodes that have edges to this node.
// Returns nil if the node has no parents or doesn't exist.
func (d *DAG) Parents(id string) []string {
	h, ok := d.index[id]
	if !ok {
		return nil
	}
	return d.resolve(d.incoming[h])
}

func (d *DAG) resolve(handles []int) []string {
	if len(handles) == 0 {
		return nil
	}
	out := make([]string, len(handles))
	for i, h := range handles {
		out[i] = d.ids[h]
	}
	return out
}

// Toposort returns all node IDs ordered so that every edge source precedes
// its target. With edges drawn dependency -> dependent, dependencies come
// first. The order is deterministic for a fixed insertion sequence; the
// relative order of unconstrained siblings is unspecified beyond that.
//
// Returns a *CycleError naming one cycle participant if the graph is not
// acyclic.
func (d *DAG) Toposort() ([]string, error) {
	indegree := make([]int, len(d.ids))
	for _, e := range d.edges {
		indegree[e[1]]++
	}

	queue := make([]int, 0, len(d.ids))
	for h := range d.ids {
		if indegree[h] == 0 {
			queue = append(queue, h)
		}
	}

	order := make([]string, 0, len(d.ids))
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		order = append(order, d.ids[h])
		for _, child := range d.outgoing[h] {
			if indegree[child]--; indegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if len(order) != len(d.ids) {
		for h, deg := range indegree {
			if deg > 0 {
				return nil, &CycleError{Node: d.ids[h]}
			}
		}
	}
	return order, nil
}
