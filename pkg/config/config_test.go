package config_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scrossle/claude-subconscious/pkg/config"
)

var _ = Describe("Load", func() {
	BeforeEach(func() {
		t := GinkgoT()
		t.Setenv("SUBCONSCIOUS_API_URL", "")
		t.Setenv("SUBCONSCIOUS_API_KEY", "")
		t.Setenv("SUBCONSCIOUS_AGENT_ID", "")
		t.Setenv("SUBCONSCIOUS_STATE_DIR", "")
		t.Setenv("SUBCONSCIOUS_MESSAGE_LIMIT", "")
		t.Setenv("SUBCONSCIOUS_TIMEOUT", "")
		t.Setenv("SUBCONSCIOUS_WATCH_SCHEDULE", "")
	})

	It("is disabled without an api url and agent id", func() {
		Expect(config.Load().Enabled()).To(BeFalse())

		GinkgoT().Setenv("SUBCONSCIOUS_API_URL", "http://localhost:8283")
		Expect(config.Load().Enabled()).To(BeFalse())

		GinkgoT().Setenv("SUBCONSCIOUS_AGENT_ID", "agent-a")
		Expect(config.Load().Enabled()).To(BeTrue())
	})

	It("applies defaults", func() {
		cfg := config.Load()
		Expect(cfg.MessageLimit).To(Equal(30))
		Expect(cfg.Timeout).To(Equal(30 * time.Second))
		Expect(cfg.WatchSchedule).To(Equal("@every 5m"))
		Expect(cfg.StateDir).ToNot(BeEmpty())
	})

	It("clamps the message limit to the feed contract", func() {
		GinkgoT().Setenv("SUBCONSCIOUS_MESSAGE_LIMIT", "5")
		Expect(config.Load().MessageLimit).To(Equal(20))

		GinkgoT().Setenv("SUBCONSCIOUS_MESSAGE_LIMIT", "500")
		Expect(config.Load().MessageLimit).To(Equal(50))

		GinkgoT().Setenv("SUBCONSCIOUS_MESSAGE_LIMIT", "40")
		Expect(config.Load().MessageLimit).To(Equal(40))
	})

	It("parses the timeout", func() {
		GinkgoT().Setenv("SUBCONSCIOUS_TIMEOUT", "90s")
		Expect(config.Load().Timeout).To(Equal(90 * time.Second))
	})
})
