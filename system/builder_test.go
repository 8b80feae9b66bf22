package system_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesweep/config"
	"github.com/sarchlab/pipesweep/system"
)

func TestSystem(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "System Suite")
}

var _ = Describe("Build", func() {
	var cfg *config.MachineConfig

	BeforeEach(func() {
		factory := config.NewFactory()
		pred, err := factory.Configure("tournament")
		Expect(err).NotTo(HaveOccurred())
		cfg, err = config.Build(2, 1, pred, config.DefaultHierarchy())
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Two-Level Hierarchy", func() {
		var top *system.Topology

		BeforeEach(func() {
			var err error
			top, err = system.Build(cfg)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should create the core, caches, buses, and memory controller", func() {
			Expect(top.Nodes).To(HaveLen(7))
			for _, name := range []string{"cpu", "l1i", "l1d", "tol2bus", "l2", "membus", "memctrl"} {
				Expect(top.Node(name)).NotTo(BeNil(), "missing node %s", name)
			}
		})

		It("should wire the core ports to the L1 caches", func() {
			Expect(top.Links).To(ContainElement(system.Link{
				From: "cpu", FromPort: system.PortICache, To: "l1i", ToPort: system.PortCPUSide,
			}))
			Expect(top.Links).To(ContainElement(system.Link{
				From: "cpu", FromPort: system.PortDCache, To: "l1d", ToPort: system.PortCPUSide,
			}))
		})

		It("should route both L1s through the crossbar to the L2", func() {
			Expect(top.Links).To(ContainElement(system.Link{
				From: "l1i", FromPort: system.PortMemSide, To: "tol2bus", ToPort: system.PortCPUSide,
			}))
			Expect(top.Links).To(ContainElement(system.Link{
				From: "l1d", FromPort: system.PortMemSide, To: "tol2bus", ToPort: system.PortCPUSide,
			}))
			Expect(top.Links).To(ContainElement(system.Link{
				From: "tol2bus", FromPort: system.PortMemSide, To: "l2", ToPort: system.PortCPUSide,
			}))
		})

		It("should put the L2 and the memory controller on the system bus", func() {
			Expect(top.Links).To(ContainElement(system.Link{
				From: "l2", FromPort: system.PortMemSide, To: "membus", ToPort: system.PortCPUSide,
			}))
			Expect(top.Links).To(ContainElement(system.Link{
				From: "membus", FromPort: system.PortMemSide, To: "memctrl", ToPort: system.PortMem,
			}))
		})

		It("should connect the functional system port to the bus", func() {
			Expect(top.Links).To(ContainElement(system.Link{
				From: "cpu", FromPort: system.PortSystem, To: "membus", ToPort: system.PortCPUSide,
			}))
		})

		It("should attach tag-array geometry to every cache", func() {
			caches := top.Caches()
			Expect(caches).To(HaveLen(3))
			Expect(caches[0].Name).To(Equal("l1i"))
			Expect(caches[1].Name).To(Equal("l1d"))
			Expect(caches[2].Name).To(Equal("l2"))

			l1i := caches[0].Geometry
			Expect(l1i.Sets()).To(Equal(256))
			Expect(l1i.Ways()).To(Equal(2))
			Expect(l1i.TotalSize()).To(Equal(uint64(32 * 1024)))

			l2 := caches[2].Geometry
			Expect(l2.Sets()).To(Equal(512))
			Expect(l2.Ways()).To(Equal(8))
			Expect(l2.TotalSize()).To(Equal(uint64(256 * 1024)))
		})

		It("should back the memory controller with storage", func() {
			memctrl := top.MemController()
			Expect(memctrl).NotTo(BeNil())
			Expect(memctrl.Storage).NotTo(BeNil())
		})

		It("should keep the source config on the topology", func() {
			Expect(top.Config).To(BeIdenticalTo(cfg))
		})
	})

	Describe("L1-Only Hierarchy", func() {
		var top *system.Topology

		BeforeEach(func() {
			factory := config.NewFactory()
			pred, err := factory.Configure("static")
			Expect(err).NotTo(HaveOccurred())
			l1only, err := config.Build(1, 1, pred, config.L1OnlyHierarchy())
			Expect(err).NotTo(HaveOccurred())

			top, err = system.Build(l1only)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should skip the crossbar and L2", func() {
			Expect(top.Nodes).To(HaveLen(5))
			Expect(top.Node("tol2bus")).To(BeNil())
			Expect(top.Node("l2")).To(BeNil())
		})

		It("should connect the L1s straight to the system bus", func() {
			Expect(top.Links).To(ContainElement(system.Link{
				From: "l1i", FromPort: system.PortMemSide, To: "membus", ToPort: system.PortCPUSide,
			}))
			Expect(top.Links).To(ContainElement(system.Link{
				From: "l1d", FromPort: system.PortMemSide, To: "membus", ToPort: system.PortCPUSide,
			}))
		})
	})

	Describe("Configuration Errors", func() {
		It("should reject a nil config", func() {
			_, err := system.Build(nil)
			Expect(err).To(HaveOccurred())
		})

		It("should reject a zero-sized cache", func() {
			cfg.Caches.L1I.Size = 0
			_, err := system.Build(cfg)
			Expect(err).To(HaveOccurred())
		})

		It("should reject a missing memory range", func() {
			cfg.Memory.RangeBytes = 0
			_, err := system.Build(cfg)
			Expect(err).To(HaveOccurred())
		})
	})
})
