package runner_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesweep/metrics"
	"github.com/sarchlab/pipesweep/runner"
)

const sampleStats = `---------- Begin Simulation Statistics ----------
# ticks per second
sim_ticks                                    123456789
system.cpu.numCycles                         4000
system.cpu.committedInsts                    10000 # committed instructions
system.cpu.branchPred.numBranches            2500
system.cpu.branchPred.numMispred             125
system.cpu.committedInsts::0                 6000
system.cpu.committedInsts::1                 4000
garbage line
system.cpu.notANumber                        xyz
---------- End Simulation Statistics   ----------
`

var _ = Describe("ParseStats", func() {
	var src metrics.MapSource

	BeforeEach(func() {
		var err error
		src, err = runner.ParseStats(strings.NewReader(sampleStats))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should expose counters under their full path", func() {
		v, ok := src.Counter("system.cpu.numCycles")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(4000.0))
	})

	It("should expose counters under their leaf name", func() {
		v, ok := src.Counter("numCycles")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(4000.0))

		v, ok = src.Counter("numBranches")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(2500.0))
	})

	It("should keep vector counter spellings", func() {
		v, ok := src.Counter("committedInsts::0")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(6000.0))

		v, ok = src.Counter("committedInsts::1")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(4000.0))
	})

	It("should keep the first value on a leaf name collision", func() {
		collided, err := runner.ParseStats(strings.NewReader(
			"system.cpu0.numCycles 100\nsystem.cpu1.numCycles 200\n"))
		Expect(err).NotTo(HaveOccurred())

		v, ok := collided.Counter("numCycles")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(100.0))

		v, ok = collided.Counter("system.cpu1.numCycles")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(200.0))
	})

	It("should skip separators, comments, and unparseable lines", func() {
		_, ok := src.Counter("garbage")
		Expect(ok).To(BeFalse())
		_, ok = src.Counter("notANumber")
		Expect(ok).To(BeFalse())
		_, ok = src.Counter("#")
		Expect(ok).To(BeFalse())
	})

	It("should report absence for unknown counters", func() {
		_, ok := src.Counter("numSquashes")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("LoadStatsFile", func() {
	It("should return an error for a missing file", func() {
		_, err := runner.LoadStatsFile("/nonexistent/stats.txt")
		Expect(err).To(HaveOccurred())
	})
})
