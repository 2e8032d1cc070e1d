// Package quotes holds the domain model shared by every pipeline stage:
// comparison criteria supplied by the caller, structured quotes extracted
// from documents, and the final cross-vendor analysis.
package quotes

// Line item categories. The structured extractor constrains the model to
// exactly this set; anything it cannot place goes to CategoryOther.
const (
	CategoryLabor     = "labor"
	CategoryMaterials = "materials"
	CategoryPermits   = "permits"
	CategoryEquipment = "equipment"
	CategoryOther     = "other"
)

// Categories returns the allowed line item category labels in a stable order.
func Categories() []string {
	return []string{CategoryLabor, CategoryMaterials, CategoryPermits, CategoryEquipment, CategoryOther}
}

// ComparisonCriteria is the user-provided rubric for evaluating quotes.
// Priorities are order-significant: the first entry carries the most weight.
type ComparisonCriteria struct {
	Priorities  []string `json:"priorities"`
	MustInclude []string `json:"must_include,omitempty"`
	BudgetLimit *float64 `json:"budget_limit,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// DefaultCriteria is used when the caller supplies none: price is the only
// priority, nothing is required, no budget ceiling.
func DefaultCriteria() *ComparisonCriteria {
	return &ComparisonCriteria{Priorities: []string{"price"}}
}

// LineItem is a single priced entry from a vendor quote. Quantity and
// UnitPrice are nil when the source document does not state them; Total is
// always present.
type LineItem struct {
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	Total       float64  `json:"total"`
}

// ParsedQuote is the structured representation of one vendor quote. It is
// produced once by the structured extractor and never mutated afterwards; a
// quote with zero line items is invalid by contract.
type ParsedQuote struct {
	VendorName   string     `json:"vendor_name"`
	QuoteDate    string     `json:"quote_date,omitempty"`
	ValidUntil   string     `json:"valid_until,omitempty"`
	LineItems    []LineItem `json:"line_items"`
	Subtotal     float64    `json:"subtotal"`
	Tax          *float64   `json:"tax,omitempty"`
	Total        float64    `json:"total"`
	PaymentTerms string     `json:"payment_terms,omitempty"`
	Timeline     string     `json:"timeline,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// HiddenCost flags an item present in some quotes but missing from the named
// vendor's, with an amount estimated from the vendors that do include it.
type HiddenCost struct {
	Vendor          string  `json:"vendor"`
	Item            string  `json:"item"`
	EstimatedAmount float64 `json:"estimated_amount"`
	Reason          string  `json:"reason"`
}

// RankedQuote is one vendor's scored position in the comparison. TrueTotal is
// the quoted total plus that vendor's estimated hidden costs. Score is 0-100.
type RankedQuote struct {
	Vendor    string   `json:"vendor"`
	BasePrice float64  `json:"base_price"`
	TrueTotal float64  `json:"true_total"`
	Score     float64  `json:"score"`
	Pros      []string `json:"pros"`
	Cons      []string `json:"cons"`
}

// Analysis is the final output of a pipeline run. CriteriaUsed and Quotes
// echo the caller's inputs and are re-stamped from them after the inference
// call; the service's echo is never trusted for either field.
type Analysis struct {
	CriteriaUsed         ComparisonCriteria `json:"criteria_used"`
	Quotes               []ParsedQuote      `json:"quotes"`
	NormalizedCategories []string           `json:"normalized_categories"`
	HiddenCosts          []HiddenCost       `json:"hidden_costs"`
	Ranking              []RankedQuote      `json:"ranking"`
	Recommendation       string             `json:"recommendation"`
	Reasoning            string             `json:"reasoning"`
	Confidence           float64            `json:"confidence"`
	Caveats              []string           `json:"caveats"`
}
