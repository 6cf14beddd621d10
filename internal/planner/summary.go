package planner

import (
	"fmt"
	"strings"

	"elior-fitness/internal/nutrition"
)

// OptionSummary is what one alternative provides at its portion size.
type OptionSummary struct {
	Name         string           `json:"name"`
	PortionGrams float64          `json:"portion_grams"`
	Density      nutrition.Macros `json:"density"`
	Totals       nutrition.Macros `json:"totals"`
}

// CategorySummary holds the derived values for one macro category.
type CategorySummary struct {
	MacroType        nutrition.MacroType `json:"macro_type"`
	RecommendedGrams float64             `json:"recommended_grams"`
	Totals           nutrition.Macros    `json:"totals"`
	Options          []OptionSummary     `json:"options"`
}

// MealSummary holds the derived values for one meal.
type MealSummary struct {
	Name       string                `json:"name"`
	Totals     nutrition.Macros      `json:"totals"`
	Budget     nutrition.MacroBudget `json:"budget"`
	Categories []CategorySummary     `json:"categories"`
}

// Summary is the full nutrition breakdown of a plan.
type Summary struct {
	Meals  []MealSummary         `json:"meals"`
	Totals nutrition.Macros      `json:"totals"`
	Budget nutrition.MacroBudget `json:"budget"`
}

// Summarize derives per-category, per-meal and plan totals and judges them
// against the plan's targets. It has no side effects.
func Summarize(p nutrition.MealPlan) *Summary {
	s := &Summary{Meals: make([]MealSummary, 0, len(p.MealSlots))}
	for _, slot := range p.MealSlots {
		meal := MealSummary{Name: slot.Name}
		for _, cat := range slot.MacroCategories {
			cs := CategorySummary{
				MacroType:        cat.MacroType,
				RecommendedGrams: nutrition.RecommendedGrams(cat),
				Totals:           nutrition.CategoryTotals(cat),
				Options:          make([]OptionSummary, 0, len(cat.FoodOptions)),
			}
			for _, opt := range cat.FoodOptions {
				cs.Options = append(cs.Options, OptionSummary{
					Name:         opt.Name,
					PortionGrams: nutrition.PortionGrams(opt, cat.QuantityInstruction),
					Density:      nutrition.Density(opt),
					Totals:       nutrition.OptionTotals(opt, cat.QuantityInstruction),
				})
			}
			meal.Categories = append(meal.Categories, cs)
			meal.Totals = meal.Totals.Add(cs.Totals)
		}
		meal.Budget = nutrition.MealBudget(slot, meal.Totals)
		s.Meals = append(s.Meals, meal)
		s.Totals = s.Totals.Add(meal.Totals)
	}
	s.Budget = nutrition.PlanBudget(p, s.Totals)
	return s
}

// Text renders the summary as plain text for terminals.
func (s *Summary) Text() string {
	var sb strings.Builder
	for _, m := range s.Meals {
		fmt.Fprintf(&sb, "%s\n", m.Name)
		for _, c := range m.Categories {
			fmt.Fprintf(&sb, "  %-8s %4.0fg  %s\n", c.MacroType, c.RecommendedGrams, c.Totals)
		}
		writeBudget(&sb, "  ", m.Budget)
	}
	sb.WriteString("Plan total\n")
	writeBudget(&sb, "  ", s.Budget)
	return sb.String()
}

func writeBudget(sb *strings.Builder, indent string, b nutrition.MacroBudget) {
	fmt.Fprintf(sb, "%scalories: %s\n", indent, b.Calories)
	fmt.Fprintf(sb, "%sprotein:  %s\n", indent, b.Protein)
	fmt.Fprintf(sb, "%scarbs:    %s\n", indent, b.Carbs)
	fmt.Fprintf(sb, "%sfat:      %s\n", indent, b.Fat)
}
