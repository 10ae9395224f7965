// Package grouppolicy derives local group memberships from a client's remote
// products and the operator's mapping rules. Grants are additive only.
package grouppolicy

import (
	"sort"
	"strconv"

	"github.com/chainsafe/billing-bridge/pkg/bridge"
	"github.com/chainsafe/billing-bridge/pkg/whmcs"
)

// StatusActive is the only product status that satisfies product and
// product_group rules.
const StatusActive = "Active"

// Resolve returns the target groups of every published mapping that matches at
// least one of products, deduplicated, in rule evaluation order.
func Resolve(mappings []bridge.GroupMapping, products []whmcs.Product) []int64 {
	rules := Ordered(mappings)

	seen := make(map[int64]struct{})
	groups := make([]int64, 0)
	for _, rule := range rules {
		if _, ok := seen[rule.TargetGroupID]; ok {
			continue
		}
		for i := range products {
			if Matches(rule, &products[i]) {
				seen[rule.TargetGroupID] = struct{}{}
				groups = append(groups, rule.TargetGroupID)
				break
			}
		}
	}
	return groups
}

// Ordered returns the published mappings sorted by priority (highest first),
// ties broken by id.
func Ordered(mappings []bridge.GroupMapping) []bridge.GroupMapping {
	rules := make([]bridge.GroupMapping, 0, len(mappings))
	for _, m := range mappings {
		if m.Published {
			rules = append(rules, m)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority > rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
	return rules
}

// Matches reports whether rule applies to product. Unpublished rules and
// unknown map types never match.
func Matches(rule bridge.GroupMapping, product *whmcs.Product) bool {
	if !rule.Published {
		return false
	}
	switch rule.MapType {
	case bridge.MapTypeProduct:
		return product.Status == StatusActive &&
			rule.Identifier == strconv.FormatInt(product.ProductID.Int64(), 10)
	case bridge.MapTypeProductGroup:
		return product.Status == StatusActive && rule.Identifier == product.GroupName
	case bridge.MapTypeStatus:
		return rule.Identifier == product.Status
	default:
		return false
	}
}

// Merge unions granted into existing. It returns the merged set, existing
// members first, and the groups that were not already present.
func Merge(existing, granted []int64) (merged, added []int64) {
	have := make(map[int64]struct{}, len(existing)+len(granted))
	merged = make([]int64, 0, len(existing)+len(granted))
	for _, g := range existing {
		if _, ok := have[g]; ok {
			continue
		}
		have[g] = struct{}{}
		merged = append(merged, g)
	}

	added = make([]int64, 0)
	for _, g := range granted {
		if _, ok := have[g]; ok {
			continue
		}
		have[g] = struct{}{}
		merged = append(merged, g)
		added = append(added, g)
	}
	return merged, added
}
