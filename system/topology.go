// Package system assembles the simulated machine topology from a machine
// configuration: core ports, caches, interconnect, and memory controller,
// wired in the fixed order the engine expects.
package system

import (
	"fmt"

	"github.com/sarchlab/akita/v4/mem"
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/pipesweep/config"
)

// NodeKind labels the role of a topology node.
type NodeKind string

// The node kinds appearing in a built topology.
const (
	NodeCore     NodeKind = "core"
	NodeCache    NodeKind = "cache"
	NodeCrossbar NodeKind = "xbar"
	NodeBus      NodeKind = "bus"
	NodeMemCtrl  NodeKind = "memctrl"
)

// Node is one component in the wired topology.
type Node struct {
	// Name identifies the node ("cpu", "l1i", "tol2bus", "membus", ...).
	Name string

	// Kind is the node's role.
	Kind NodeKind

	// Geometry is the tag-array model. Non-nil only for cache nodes.
	Geometry *CacheGeometry

	// Storage is the backing store. Non-nil only for the memory controller.
	Storage *mem.Storage
}

// Link is one directed connection from an upstream port to a downstream port.
type Link struct {
	From     string
	FromPort string
	To       string
	ToPort   string
}

func (l Link) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", l.From, l.FromPort, l.To, l.ToPort)
}

// Topology is the wired machine graph. Nodes and Links are recorded in
// build order: core, L1s, optional crossbar and L2, system bus, memory
// controller.
type Topology struct {
	// Config is the machine configuration this topology was built from.
	Config *config.MachineConfig

	// Nodes in build order.
	Nodes []*Node

	// Links in build order.
	Links []Link
}

// Node returns the named node, or nil.
func (t *Topology) Node(name string) *Node {
	for _, n := range t.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Caches returns the cache nodes in hierarchy order.
func (t *Topology) Caches() []*Node {
	var caches []*Node
	for _, n := range t.Nodes {
		if n.Kind == NodeCache {
			caches = append(caches, n)
		}
	}
	return caches
}

// MemController returns the memory controller node, or nil.
func (t *Topology) MemController() *Node {
	for _, n := range t.Nodes {
		if n.Kind == NodeMemCtrl {
			return n
		}
	}
	return nil
}

// CacheGeometry models one cache level's tag array. The directory is the
// geometry source of truth handed to the engine; its set and way counts
// come from the same arithmetic the engine applies.
type CacheGeometry struct {
	level     config.CacheLevel
	directory *akitacache.DirectoryImpl
}

func newCacheGeometry(level config.CacheLevel) *CacheGeometry {
	return &CacheGeometry{
		level: level,
		directory: akitacache.NewDirectory(
			level.Sets(),
			level.Associativity,
			level.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Level returns the cache level configuration behind this geometry.
func (g *CacheGeometry) Level() config.CacheLevel {
	return g.level
}

// Sets returns the number of sets in the tag array.
func (g *CacheGeometry) Sets() int {
	return g.level.Sets()
}

// Ways returns the tag array's way associativity.
func (g *CacheGeometry) Ways() int {
	return g.directory.WayAssociativity()
}

// TotalSize returns the capacity in bytes tracked by the tag array.
func (g *CacheGeometry) TotalSize() uint64 {
	return g.directory.TotalSize()
}

// Directory exposes the underlying tag-array directory.
func (g *CacheGeometry) Directory() *akitacache.DirectoryImpl {
	return g.directory
}
