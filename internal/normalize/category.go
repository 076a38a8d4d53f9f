package normalize

import "strings"

const CategoryOther = "Other"

// CategoryRule assigns Category when any keyword occurs in the lower-cased text.
type CategoryRule struct {
	Category string
	Keywords []string
}

// DefaultCategoryRules is evaluated top to bottom; the first match wins. Several
// names legitimately match more than one rule, so the order is part of the contract.
func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{
			Category: "Inflation",
			Keywords: []string{"inflation", "cpi", "ppi", "price index", "prices", "deflator"},
		},
		{
			Category: "GDP & Growth",
			Keywords: []string{"gdp", "growth"},
		},
		{
			Category: "Employment",
			Keywords: []string{
				"employ", "unemploy", "jobless", "payroll", "job", "labor", "labour",
				"wage", "earnings", "claimant", "personal income",
			},
		},
		{
			Category: "Monetary Policy",
			Keywords: []string{
				"rate decision", "interest rate", "fed ", "ecb ", "boe ", "boj ",
				"central bank", "monetary", "fomc", "minutes", "speech",
			},
		},
		{
			Category: "Energy",
			Keywords: []string{
				"crude oil", "natural gas", "gasoline", "distillate", "heating oil",
				"refinery", "baker hughes", "rig count", "fuel",
			},
		},
		{
			Category: "Retail & Consumption",
			Keywords: []string{
				"retail", "consumer spend", "consumer conf", "consumer credit",
				"personal spend", "car registr", "tourist", "redbook", "sales",
			},
		},
		{
			Category: "Trade",
			Keywords: []string{"trade", "export", "import", "balance of", "current account"},
		},
		{
			Category: "Manufacturing",
			Keywords: []string{
				"manufactur", "industrial", "production", "factory", "capacity",
				"durable goods", "machinery order", "goods orders", "wholesale inv",
			},
		},
		{
			Category: "Business Surveys",
			Keywords: []string{
				"pmi", "business conf", "business climate", "sentiment", "survey", "ifo",
				"zew", "tankan", "michigan", "leading index", "economic activity",
			},
		},
		{
			Category: "Housing",
			Keywords: []string{
				"housing", "building", "home", "mortgage", "construction", "mba", "purchase index",
			},
		},
		{
			Category: "Bonds & Auctions",
			Keywords: []string{"auction", "bond", "treasury", "bill", "yield"},
		},
		{
			Category: "Money & Credit",
			Keywords: []string{"money supply", "m2", "m3", "lending", "loan", "credit", "bank"},
		},
		{
			Category: "Capital Flows",
			Keywords: []string{
				"foreign direct", "capital flow", "tic flow", "securities purchase",
				"stock investment", "foreign exchange res",
			},
		},
		{
			Category: "Government",
			Keywords: []string{"budget", "debt", "fiscal", "government", "revenue", "spending"},
		},
	}
}

type Categorizer struct {
	Rules []CategoryRule
}

// InferCategory joins hint and name, lower-cases the text and returns the first matching category.
func (c *Categorizer) InferCategory(hint, name string) string {
	rules := DefaultCategoryRules()
	if c != nil && len(c.Rules) > 0 {
		rules = c.Rules
	}
	text := strings.ToLower(hint + " " + name)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(text, kw) {
				return rule.Category
			}
		}
	}
	return CategoryOther
}

func InferCategory(hint, name string) string {
	return (*Categorizer)(nil).InferCategory(hint, name)
}
