package runner_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/pipesweep/config"
	"github.com/sarchlab/pipesweep/metrics"
	"github.com/sarchlab/pipesweep/runner"
	"github.com/sarchlab/pipesweep/system"
)

func TestRunner(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Runner Suite")
}

// stubSimulator satisfies runner.Simulator without an engine process.
type stubSimulator struct {
	instantiateErr error
	simulateErr    error
	exit           runner.ExitEvent
	stats          metrics.MapSource

	instantiated bool
	simulated    bool
}

func (s *stubSimulator) Instantiate(top *system.Topology) error {
	s.instantiated = true
	return s.instantiateErr
}

func (s *stubSimulator) Simulate() (runner.ExitEvent, error) {
	s.simulated = true
	return s.exit, s.simulateErr
}

func (s *stubSimulator) Stats() metrics.Source {
	return s.stats
}

var _ = Describe("Runner", func() {
	var (
		top  *system.Topology
		stub *stubSimulator
	)

	BeforeEach(func() {
		factory := config.NewFactory()
		pred, err := factory.Configure("tournament")
		Expect(err).NotTo(HaveOccurred())
		cfg, err := config.Build(2, 1, pred, config.DefaultHierarchy())
		Expect(err).NotTo(HaveOccurred())
		top, err = system.Build(cfg)
		Expect(err).NotTo(HaveOccurred())

		stub = &stubSimulator{
			exit: runner.ExitEvent{
				Cause: "exiting with last active thread context",
				Time:  sim.VTimeInSec(1.234e-3),
			},
			stats: metrics.MapSource{
				"numBranches": 100,
				"numMispred":  10,
				"numCycles":   1000,
				"numInsts":    2000,
			},
		}
	})

	It("should pass the exit event through verbatim", func() {
		result, err := runner.New(stub).Run(top)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.ExitCause).To(Equal("exiting with last active thread context"))
		Expect(result.ExitTime).To(Equal(sim.VTimeInSec(1.234e-3)))
	})

	It("should resolve metrics from the engine's statistics surface", func() {
		result, err := runner.New(stub).Run(top)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Metrics.Lookups).To(Equal(100.0))
		Expect(result.Metrics.Mispredicts).To(Equal(10.0))
		Expect(result.Metrics.Cycles).To(Equal(1000.0))
		Expect(result.Metrics.Instructions()).To(Equal(2000.0))
		Expect(result.Metrics.Accuracy()).To(BeNumerically("~", 90.0, 1e-9))
	})

	It("should record a non-negative wall time", func() {
		result, err := runner.New(stub).Run(top)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.WallSeconds()).To(BeNumerically(">=", 0))
	})

	It("should run instantiate before simulate", func() {
		_, err := runner.New(stub).Run(top)
		Expect(err).NotTo(HaveOccurred())
		Expect(stub.instantiated).To(BeTrue())
		Expect(stub.simulated).To(BeTrue())
	})

	It("should wrap instantiate failures with the machine snapshot", func() {
		stub.instantiateErr = errors.New("bad wiring")
		_, err := runner.New(stub).Run(top)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("instantiate failed"))
		Expect(err.Error()).To(ContainSubstring("bad wiring"))
		Expect(err.Error()).To(ContainSubstring("MachineConfig"))
		Expect(stub.simulated).To(BeFalse())
	})

	It("should wrap simulation failures with the machine snapshot", func() {
		stub.simulateErr = errors.New("engine crashed")
		_, err := runner.New(stub).Run(top)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("simulation failed"))
		Expect(err.Error()).To(ContainSubstring("engine crashed"))
	})

	It("should resolve per-thread instructions for multithreaded machines", func() {
		factory := config.NewFactory()
		pred, err := factory.Configure("local")
		Expect(err).NotTo(HaveOccurred())
		cfg, err := config.Build(2, 2, pred, config.DefaultHierarchy())
		Expect(err).NotTo(HaveOccurred())
		mtTop, err := system.Build(cfg)
		Expect(err).NotTo(HaveOccurred())

		stub.stats = metrics.MapSource{
			"committedInsts::0": 600,
			"committedInsts::1": 400,
			"numCycles":         1000,
		}

		result, err := runner.New(stub).Run(mtTop)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Metrics.InstructionsByThread).To(Equal([]float64{600, 400}))
	})
})
