package trace_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesweep/trace"
)

var _ = Describe("Render", func() {
	var timeline trace.Timeline

	BeforeEach(func() {
		var err error
		timeline, err = trace.Parse(strings.NewReader(sampleTrace))
		Expect(err).NotTo(HaveOccurred())
	})

	render := func(start, window int) []string {
		var buf bytes.Buffer
		Expect(trace.Render(&buf, timeline, start, window)).To(Succeed())
		out := strings.TrimSuffix(buf.String(), "\n")
		return strings.Split(out, "\n")
	}

	It("should print the stage header and separator", func() {
		lines := render(100, 5)
		Expect(lines[0]).To(Equal("Cycle   | F1  | F2  | EX  | MEM | COM"))
		Expect(lines[1]).To(Equal(strings.Repeat("-", 39)))
	})

	It("should print exactly one row per cycle in the window", func() {
		lines := render(100, 5)
		Expect(lines).To(HaveLen(2 + 5))
	})

	It("should render recorded states centered in their columns", func() {
		lines := render(42, 1)
		Expect(lines[2]).To(Equal("     42 |  F  |  F  |  E  |  M  |  C  "))
	})

	It("should render multi-character states without breaking alignment", func() {
		lines := render(45, 1)
		Expect(lines[2]).To(Equal("     45 |  -  | Ds  |  E  |  E  |  E  "))
	})

	It("should render unrecorded cycles with the empty mark", func() {
		lines := render(100, 1)
		Expect(lines[2]).To(Equal("    100 |  -  |  -  |  -  |  -  |  -  "))
	})

	It("should fall back to the default window size", func() {
		lines := render(500, 0)
		Expect(lines).To(HaveLen(2 + trace.DefaultWindow))
	})
})
