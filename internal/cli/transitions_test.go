package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/domain"
)

func testSet() *domain.TransitionSet {
	return &domain.TransitionSet{
		Node:        "orders",
		Description: "Order routing rules.",
		Transitions: []domain.Transition{
			{Name: "notify_payment", Kind: domain.KindToolBased, Tool: "payment_gateway", Priority: 5, Triggers: []string{"confirm_order"}},
			{Name: "audit_order", Kind: domain.KindSimple, Priority: 10, Triggers: []string{"confirm_order", "cancel_order"}},
			{Name: "cleanup", Kind: domain.KindSimple},
		},
	}
}

func TestRenderTransitions(t *testing.T) {
	md := RenderTransitions(testSet(), false)

	assert.Contains(t, md, "# Contract: orders")
	assert.Contains(t, md, "| Name | Kind | Priority | Triggers |")
	assert.Contains(t, md, "| audit_order | simple | 10 | confirm_order, cancel_order |")
	assert.Contains(t, md, "| notify_payment (payment_gateway) | tool_based | 5 | confirm_order |")
	assert.Contains(t, md, "| cleanup | simple | 0 | - |")
	assert.Contains(t, md, "3 transition(s), shown in dispatch order.")
	assert.NotContains(t, md, "Order routing rules.")

	auditIdx := strings.Index(md, "audit_order")
	notifyIdx := strings.Index(md, "notify_payment")
	require.GreaterOrEqual(t, auditIdx, 0)
	require.GreaterOrEqual(t, notifyIdx, 0)
	assert.Less(t, auditIdx, notifyIdx, "rows should follow dispatch order, highest priority first")
}

func TestRenderTransitions_Describe(t *testing.T) {
	md := RenderTransitions(testSet(), true)

	assert.Contains(t, md, "Order routing rules.")
}

func TestRenderTransitions_Empty(t *testing.T) {
	md := RenderTransitions(&domain.TransitionSet{Node: "orders"}, false)

	assert.Contains(t, md, "_No transitions declared._")
	assert.NotContains(t, md, "| Name |")
}
