package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/whichbid/whichbid/internal/quotes"
)

// splitList parses a comma-separated flag value, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// criteriaFromFlags builds criteria from the analyze command's flag values.
// Returns nil when nothing was provided so the pipeline applies defaults.
func criteriaFromFlags(priorities, mustInclude, notes string, budget float64) *quotes.ComparisonCriteria {
	p := splitList(priorities)
	m := splitList(mustInclude)
	notes = strings.TrimSpace(notes)

	if len(p) == 0 && len(m) == 0 && budget <= 0 && notes == "" {
		return nil
	}

	if len(p) == 0 {
		p = quotes.DefaultCriteria().Priorities
	}

	criteria := &quotes.ComparisonCriteria{
		Priorities:  p,
		MustInclude: m,
		Notes:       notes,
	}
	if budget > 0 {
		criteria.BudgetLimit = &budget
	}
	return criteria
}

// promptForCriteria interactively collects criteria, accepting defaults on
// empty input.
func promptForCriteria() (*quotes.ComparisonCriteria, error) {
	prioritiesPrompt := promptui.Prompt{
		Label:   "Priorities, comma-separated in order of importance (e.g. price,timeline,warranty)",
		Default: "price",
	}
	priorities, err := prioritiesPrompt.Run()
	if err != nil {
		return nil, err
	}

	mustIncludePrompt := promptui.Prompt{
		Label: "Required items that must be included (e.g. permits,insurance)",
	}
	mustInclude, err := mustIncludePrompt.Run()
	if err != nil {
		return nil, err
	}

	budgetPrompt := promptui.Prompt{
		Label: "Maximum budget (leave empty for no limit)",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return nil
			}
			if _, err := strconv.ParseFloat(strings.TrimSpace(input), 64); err != nil {
				return fmt.Errorf("not a number: %s", input)
			}
			return nil
		},
	}
	budgetRaw, err := budgetPrompt.Run()
	if err != nil {
		return nil, err
	}

	notesPrompt := promptui.Prompt{
		Label: "Additional notes/context",
	}
	notes, err := notesPrompt.Run()
	if err != nil {
		return nil, err
	}

	var budget float64
	if trimmed := strings.TrimSpace(budgetRaw); trimmed != "" {
		budget, _ = strconv.ParseFloat(trimmed, 64)
	}

	criteria := criteriaFromFlags(priorities, mustInclude, notes, budget)
	if criteria == nil {
		criteria = quotes.DefaultCriteria()
	}
	return criteria, nil
}
