package classify

// The fixed category enumeration for real-estate and finance news. Classifier
// output is filtered against this list; anything left empty falls back to
// CategoryUncategorized.
const (
	CategoryPolicyRegulation      = "policy_regulation"
	CategoryMarketTrends          = "market_trends"
	CategoryFinanceInvestment     = "finance_investment"
	CategoryRealEstateDevelopment = "real_estate_development"
	CategoryCorporateProjects     = "corporate_projects"
	CategoryLegalLitigation       = "legal_litigation"
	CategoryEconomicIndicators    = "economic_indicators"
	CategoryUncategorized         = "uncategorized"
)

var validCategories = map[string]struct{}{
	CategoryPolicyRegulation:      {},
	CategoryMarketTrends:          {},
	CategoryFinanceInvestment:     {},
	CategoryRealEstateDevelopment: {},
	CategoryCorporateProjects:     {},
	CategoryLegalLitigation:       {},
	CategoryEconomicIndicators:    {},
	CategoryUncategorized:         {},
}

// ValidCategories returns the enumeration in prompt order.
func ValidCategories() []string {
	return []string{
		CategoryPolicyRegulation,
		CategoryMarketTrends,
		CategoryFinanceInvestment,
		CategoryRealEstateDevelopment,
		CategoryCorporateProjects,
		CategoryLegalLitigation,
		CategoryEconomicIndicators,
		CategoryUncategorized,
	}
}

// FilterCategories drops anything outside the enumeration, preserving order.
func FilterCategories(categories []string) []string {
	filtered := make([]string, 0, len(categories))
	for _, category := range categories {
		if _, ok := validCategories[category]; ok {
			filtered = append(filtered, category)
		}
	}
	return filtered
}
