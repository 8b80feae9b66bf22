package config_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/pipesweep/config"
)

var _ = Describe("Factory", func() {
	var factory *config.Factory

	BeforeEach(func() {
		factory = config.NewFactory()
	})

	Describe("Variant Shapes", func() {
		It("should disable prediction for none", func() {
			spec, err := factory.Configure("none")
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.Enabled).To(BeFalse())
			Expect(spec.BTBEntries).To(BeZero())
			Expect(spec.Local).To(BeNil())
			Expect(spec.Global).To(BeNil())
			Expect(spec.Choice).To(BeNil())
		})

		It("should give static a BTB and RAS but no tables", func() {
			spec, err := factory.Configure("static")
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.Enabled).To(BeTrue())
			Expect(spec.BTBEntries).To(Equal(4096))
			Expect(spec.RASEntries).To(Equal(16))
			Expect(spec.Local).To(BeNil())
			Expect(spec.Global).To(BeNil())
			Expect(spec.Choice).To(BeNil())
		})

		It("should give local a per-address history table", func() {
			spec, err := factory.Configure("local")
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.Local).NotTo(BeNil())
			Expect(spec.Local.Entries).To(Equal(2048))
			Expect(spec.Local.CounterBits).To(Equal(2))
			Expect(spec.Global).To(BeNil())
			Expect(spec.Choice).To(BeNil())
		})

		It("should give bimode global and choice tables", func() {
			spec, err := factory.Configure("bimode")
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.Local).To(BeNil())
			Expect(spec.Global).NotTo(BeNil())
			Expect(spec.Global.Entries).To(Equal(8192))
			Expect(spec.Choice).NotTo(BeNil())
			Expect(spec.Choice.Entries).To(Equal(8192))
		})

		It("should compose tournament from all three tables", func() {
			spec, err := factory.Configure("tournament")
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.Local).NotTo(BeNil())
			Expect(spec.Global).NotTo(BeNil())
			Expect(spec.Choice).NotTo(BeNil())
			Expect(spec.BTBEntries).To(Equal(4096))
			Expect(spec.RASEntries).To(Equal(16))
		})

		It("should validate every produced variant", func() {
			for _, variant := range config.Variants() {
				spec, err := factory.Configure(variant)
				Expect(err).NotTo(HaveOccurred())
				Expect(spec.Validate()).To(Succeed())
			}
		})
	})

	Describe("Unknown Variants", func() {
		It("should fall back to tournament by default", func() {
			spec, err := factory.Configure("perceptron")
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.Variant).To(Equal(config.VariantTournament))
			Expect(spec.Local).NotTo(BeNil())
			Expect(spec.Global).NotTo(BeNil())
			Expect(spec.Choice).NotTo(BeNil())
		})

		It("should reject unknown names in strict mode", func() {
			strictFactory := config.NewFactory(config.WithStrictVariants(true))
			_, err := strictFactory.Configure("perceptron")
			Expect(err).To(HaveOccurred())
		})

		It("should still resolve known names in strict mode", func() {
			strictFactory := config.NewFactory(config.WithStrictVariants(true))
			spec, err := strictFactory.Configure("bimode")
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.Variant).To(Equal(config.VariantBiMode))
		})
	})

	Describe("Custom Parameters", func() {
		It("should use overridden table geometry", func() {
			params := config.DefaultParams()
			params.LocalEntries = 512
			params.BTBEntries = 1024
			custom := config.NewFactory(config.WithParams(params))

			spec, err := custom.Configure("tournament")
			Expect(err).NotTo(HaveOccurred())
			Expect(spec.Local.Entries).To(Equal(512))
			Expect(spec.BTBEntries).To(Equal(1024))
			Expect(spec.Global.Entries).To(Equal(8192))
		})
	})
})

var _ = Describe("PredictorSpec", func() {
	Describe("Validation", func() {
		It("should reject an empty variant", func() {
			spec := config.PredictorSpec{}
			Expect(spec.Validate()).To(HaveOccurred())
		})

		It("should reject a tournament spec missing a table", func() {
			factory := config.NewFactory()
			spec, err := factory.Configure("tournament")
			Expect(err).NotTo(HaveOccurred())

			spec.Choice = nil
			Expect(spec.Validate()).To(HaveOccurred())
		})

		It("should reject a zero-entry table", func() {
			spec := config.PredictorSpec{
				Variant: config.VariantLocal,
				Enabled: true,
				Local:   &config.TableSpec{Entries: 0, CounterBits: 2},
			}
			Expect(spec.Validate()).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		It("should create an independent copy", func() {
			factory := config.NewFactory()
			spec, err := factory.Configure("tournament")
			Expect(err).NotTo(HaveOccurred())

			clone := spec.Clone()
			clone.Local.Entries = 1

			Expect(spec.Local.Entries).To(Equal(2048))
		})
	})
})
