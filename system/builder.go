package system

import (
	"fmt"

	"github.com/sarchlab/akita/v4/mem"
	log "github.com/sirupsen/logrus"

	"github.com/sarchlab/pipesweep/config"
)

// Port names on the built nodes.
const (
	PortICache  = "icache_port"
	PortDCache  = "dcache_port"
	PortSystem  = "system_port"
	PortCPUSide = "cpu_side"
	PortMemSide = "mem_side"
	PortMem     = "port"
)

// Build wires the machine described by cfg. The L1 instruction and data
// caches are always created; a crossbar and L2 appear only when the
// hierarchy has a second level. Connection order is fixed: core ports to
// the L1s, L1s to the crossbar and L2 when present, then the system bus
// and the memory controller. Configuration errors (zero-sized cache,
// missing address range) surface here, before any simulation attempt.
func Build(cfg *config.MachineConfig) (*Topology, error) {
	if cfg == nil {
		return nil, fmt.Errorf("machine config must not be nil")
	}
	if err := cfg.Caches.Validate(); err != nil {
		return nil, err
	}
	if cfg.Memory.RangeBytes == 0 {
		return nil, fmt.Errorf("memory address range must be set")
	}

	top := &Topology{Config: cfg}

	core := &Node{Name: "cpu", Kind: NodeCore}
	top.Nodes = append(top.Nodes, core)

	l1i := &Node{Name: cfg.Caches.L1I.Name, Kind: NodeCache, Geometry: newCacheGeometry(cfg.Caches.L1I)}
	l1d := &Node{Name: cfg.Caches.L1D.Name, Kind: NodeCache, Geometry: newCacheGeometry(cfg.Caches.L1D)}
	top.Nodes = append(top.Nodes, l1i, l1d)

	top.connect(core.Name, PortICache, l1i.Name, PortCPUSide)
	top.connect(core.Name, PortDCache, l1d.Name, PortCPUSide)

	membus := &Node{Name: "membus", Kind: NodeBus}

	if cfg.Caches.HasL2() {
		xbar := &Node{Name: "tol2bus", Kind: NodeCrossbar}
		l2 := &Node{Name: cfg.Caches.L2.Name, Kind: NodeCache, Geometry: newCacheGeometry(*cfg.Caches.L2)}
		top.Nodes = append(top.Nodes, xbar, l2)

		top.connect(l1i.Name, PortMemSide, xbar.Name, PortCPUSide)
		top.connect(l1d.Name, PortMemSide, xbar.Name, PortCPUSide)
		top.connect(xbar.Name, PortMemSide, l2.Name, PortCPUSide)

		top.Nodes = append(top.Nodes, membus)
		top.connect(l2.Name, PortMemSide, membus.Name, PortCPUSide)
	} else {
		top.Nodes = append(top.Nodes, membus)
		top.connect(l1i.Name, PortMemSide, membus.Name, PortCPUSide)
		top.connect(l1d.Name, PortMemSide, membus.Name, PortCPUSide)
	}

	memctrl := &Node{
		Name:    "memctrl",
		Kind:    NodeMemCtrl,
		Storage: mem.NewStorage(cfg.Memory.RangeBytes),
	}
	top.Nodes = append(top.Nodes, memctrl)
	top.connect(membus.Name, PortMemSide, memctrl.Name, PortMem)

	// The functional system port reaches memory through the bus as well.
	top.connect(core.Name, PortSystem, membus.Name, PortCPUSide)

	log.Debugf("built topology: %d nodes, %d links, l2=%v",
		len(top.Nodes), len(top.Links), cfg.Caches.HasL2())

	return top, nil
}

func (t *Topology) connect(from, fromPort, to, toPort string) {
	link := Link{From: from, FromPort: fromPort, To: to, ToPort: toPort}
	t.Links = append(t.Links, link)
	log.Debugf("wired %s", link)
}
