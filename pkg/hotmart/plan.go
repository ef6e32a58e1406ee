package hotmart

import (
	"strings"

	"github.com/vic9511/hotmart-subscriptions-sync/pkg/types"
)

// planRules is the effective classification config: checked in order, first
// substring hit wins, BASIC when nothing matches.
var planRules = []struct {
	substr string
	plan   types.Plan
}{
	{"vip", types.PlanVIP},
	{"pro", types.PlanPro},
}

// ClassifyPlan maps free-text product/plan names to the plan enumeration.
// The product name takes precedence; the plan name is only consulted when the
// product name is empty. Matching is a case-insensitive substring heuristic.
func ClassifyPlan(productName, planName string) types.Plan {
	name := productName
	if name == "" {
		name = planName
	}
	name = strings.ToLower(strings.TrimSpace(name))
	for _, r := range planRules {
		if strings.Contains(name, r.substr) {
			return r.plan
		}
	}
	return types.PlanBasic
}
