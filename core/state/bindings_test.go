package state_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scrossle/claude-subconscious/core/state"
)

var _ = Describe("BindingStore", func() {
	var (
		store    *state.Store
		bindings *state.BindingStore
	)

	BeforeEach(func() {
		store = state.NewStore(GinkgoT().TempDir(), "proj-abc")
		bindings = store.Bindings()
	})

	tableFile := func() string {
		return filepath.Join(store.Dir(), "conversations.json")
	}

	It("reports absent entries", func() {
		_, ok := bindings.Get("sess-1")
		Expect(ok).To(BeFalse())
	})

	It("round-trips a binding", func() {
		Expect(bindings.Put("sess-1", state.Binding{ConversationID: "conv-1", AgentID: "agent-a"})).To(Succeed())

		b, ok := bindings.Get("sess-1")
		Expect(ok).To(BeTrue())
		Expect(b.ConversationID).To(Equal("conv-1"))
		Expect(b.AgentID).To(Equal("agent-a"))
		Expect(b.Legacy()).To(BeFalse())
	})

	It("decodes legacy bare-string entries as agentless bindings", func() {
		Expect(os.MkdirAll(store.Dir(), 0755)).To(Succeed())
		Expect(os.WriteFile(tableFile(), []byte(`{"sess-1": "conv-legacy"}`), 0644)).To(Succeed())

		b, ok := bindings.Get("sess-1")
		Expect(ok).To(BeTrue())
		Expect(b.ConversationID).To(Equal("conv-legacy"))
		Expect(b.Legacy()).To(BeTrue())
	})

	It("rewrites the whole table in the current shape on put", func() {
		Expect(os.MkdirAll(store.Dir(), 0755)).To(Succeed())
		Expect(os.WriteFile(tableFile(), []byte(`{"sess-1": "conv-legacy"}`), 0644)).To(Succeed())

		Expect(bindings.Put("sess-2", state.Binding{ConversationID: "conv-2", AgentID: "agent-a"})).To(Succeed())

		data, err := os.ReadFile(tableFile())
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"conversationId": "conv-legacy"`))
		Expect(string(data)).To(ContainSubstring(`"conversationId": "conv-2"`))
	})

	It("fails open on a corrupt table", func() {
		Expect(os.MkdirAll(store.Dir(), 0755)).To(Succeed())
		Expect(os.WriteFile(tableFile(), []byte("]["), 0644)).To(Succeed())

		_, ok := bindings.Get("sess-1")
		Expect(ok).To(BeFalse())
		Expect(bindings.Put("sess-1", state.Binding{ConversationID: "conv-1", AgentID: "agent-a"})).To(Succeed())
	})
})
