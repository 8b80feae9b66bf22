package config_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesweep/config"
)

var _ = Describe("HierarchySpec", func() {
	Describe("Defaults", func() {
		It("should put 32 KiB split L1s behind a 256 KiB L2", func() {
			h := config.DefaultHierarchy()
			Expect(h.L1I.Size).To(Equal(32 * 1024))
			Expect(h.L1I.Associativity).To(Equal(2))
			Expect(h.L1D.Size).To(Equal(32 * 1024))
			Expect(h.L2).NotTo(BeNil())
			Expect(h.L2.Size).To(Equal(256 * 1024))
			Expect(h.L2.Associativity).To(Equal(8))
		})

		It("should validate out of the box", func() {
			Expect(config.DefaultHierarchy().Validate()).To(Succeed())
			Expect(config.L1OnlyHierarchy().Validate()).To(Succeed())
		})

		It("should omit the L2 in the L1-only hierarchy", func() {
			h := config.L1OnlyHierarchy()
			Expect(h.HasL2()).To(BeFalse())
			Expect(h.Levels()).To(HaveLen(2))
		})

		It("should list levels in hierarchy order", func() {
			h := config.DefaultHierarchy()
			levels := h.Levels()
			Expect(levels).To(HaveLen(3))
			Expect(levels[0].Name).To(Equal("l1i"))
			Expect(levels[1].Name).To(Equal("l1d"))
			Expect(levels[2].Name).To(Equal("l2"))
		})
	})

	Describe("Geometry", func() {
		It("should derive the set count from size, associativity, and block size", func() {
			Expect(config.DefaultL1I().Sets()).To(Equal(256))
			Expect(config.DefaultL2().Sets()).To(Equal(512))
		})
	})

	Describe("Validation", func() {
		It("should reject a zero-sized cache", func() {
			h := config.DefaultHierarchy()
			h.L1D.Size = 0
			Expect(h.Validate()).To(HaveOccurred())
		})

		It("should reject a size not divisible by the way size", func() {
			h := config.DefaultHierarchy()
			h.L1I.Size = 1000
			Expect(h.Validate()).To(HaveOccurred())
		})

		It("should reject zero associativity", func() {
			h := config.DefaultHierarchy()
			h.L2.Associativity = 0
			Expect(h.Validate()).To(HaveOccurred())
		})

		It("should reject zero MSHRs", func() {
			h := config.DefaultHierarchy()
			h.L1D.MSHRs = 0
			Expect(h.Validate()).To(HaveOccurred())
		})

		It("should reject an unnamed level", func() {
			h := config.DefaultHierarchy()
			h.L1I.Name = ""
			Expect(h.Validate()).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		It("should create an independent copy", func() {
			h := config.DefaultHierarchy()
			clone := h.Clone()
			clone.L2.Size = 1024 * 1024

			Expect(h.L2.Size).To(Equal(256 * 1024))
		})
	})
})
