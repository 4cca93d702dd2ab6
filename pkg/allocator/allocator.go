// Package allocator turns a liquidation intent into a pro-rata swap plan.
package allocator

import (
	"solsweep/pkg/types"
)

// Plan distributes intent.Percentage of the selected portfolio's value across
// the candidate assets, proportional to each asset's share of eligible value.
//
// Pure function: no I/O, no caching, identical inputs yield identical plans.
// The output asset is excluded from the candidates. Assets with an unknown
// price stay in the plan with zero swap quantity, and when the eligible value
// is zero every item carries zero quantity; the orchestrator decides what to
// do with empty items, not the planner.
func Plan(holdings []types.AssetHolding, intent types.LiquidationIntent) []types.SwapPlanItem {
	candidates := make([]types.AssetHolding, 0, len(holdings))
	totalValue := 0.0
	for _, h := range holdings {
		if h.Mint == intent.OutputMint {
			continue
		}
		candidates = append(candidates, h)
		totalValue += h.ValueUSD
	}

	fraction := intent.Percentage / 100

	items := make([]types.SwapPlanItem, 0, len(candidates))
	for _, h := range candidates {
		weight := 0.0
		if totalValue > 0 {
			weight = h.ValueUSD / totalValue
		}
		targetValue := totalValue * fraction * weight

		quantity := 0.0
		if h.HasPrice() {
			quantity = targetValue / h.UnitPriceUSD
		}
		// Never spend more than the wallet holds.
		if quantity > h.Quantity {
			quantity = h.Quantity
		}

		items = append(items, types.SwapPlanItem{
			Holding:      h,
			Quantity:     quantity,
			RawAmount:    h.RawAmount(quantity),
			ShareOfTotal: weight,
			ValueUSD:     targetValue,
		})
	}

	return items
}
