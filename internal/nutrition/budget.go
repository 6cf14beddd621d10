package nutrition

import (
	"fmt"
	"math"
)

// BudgetStatus is the judgement of a total against its target.
type BudgetStatus string

const (
	NoTarget    BudgetStatus = "no_target"
	OverBudget  BudgetStatus = "over"
	UnderBudget BudgetStatus = "under"
	OnBudget    BudgetStatus = "on"
)

// Budget compares one computed total with an optional target.
type Budget struct {
	Total      float64      `json:"total"`
	Target     *float64     `json:"target"`
	Status     BudgetStatus `json:"status"`
	Difference float64      `json:"difference"`
}

// Compare judges total against target. The comparison uses the unrounded
// total; only Difference is rounded. A nil or non-positive target yields
// NoTarget.
func Compare(total float64, target *float64) Budget {
	b := Budget{Total: total, Status: NoTarget}
	if target == nil || *target <= 0 {
		return b
	}
	t := *target
	b.Target = &t
	b.Difference = math.Round(math.Abs(total - t))
	switch {
	case total > t:
		b.Status = OverBudget
	case total < t:
		b.Status = UnderBudget
	default:
		b.Status = OnBudget
	}
	return b
}

// RoundedTotal is the total as displayed.
func (b Budget) RoundedTotal() float64 {
	return math.Round(b.Total)
}

func (b Budget) String() string {
	switch b.Status {
	case OverBudget:
		return fmt.Sprintf("%.0f (over budget by %.0f)", b.RoundedTotal(), b.Difference)
	case UnderBudget:
		return fmt.Sprintf("%.0f (under budget by %.0f)", b.RoundedTotal(), b.Difference)
	case OnBudget:
		return fmt.Sprintf("%.0f (on budget)", b.RoundedTotal())
	}
	return fmt.Sprintf("%.0f", b.RoundedTotal())
}

// MacroBudget holds one Budget per macro field.
type MacroBudget struct {
	Calories Budget `json:"calories"`
	Protein  Budget `json:"protein"`
	Carbs    Budget `json:"carbs"`
	Fat      Budget `json:"fat"`
}

// MealBudget compares meal totals against the slot's own targets.
func MealBudget(slot MealSlot, totals Macros) MacroBudget {
	return MacroBudget{
		Calories: Compare(totals.Calories, slot.TargetCalories),
		Protein:  Compare(totals.Protein, slot.TargetProtein),
		Carbs:    Compare(totals.Carbs, slot.TargetCarbs),
		Fat:      Compare(totals.Fat, slot.TargetFat),
	}
}

// PlanBudget compares plan totals against the plan-level targets.
func PlanBudget(plan MealPlan, totals Macros) MacroBudget {
	return MacroBudget{
		Calories: Compare(totals.Calories, plan.TotalCalories),
		Protein:  Compare(totals.Protein, plan.ProteinTarget),
		Carbs:    Compare(totals.Carbs, plan.CarbTarget),
		Fat:      Compare(totals.Fat, plan.FatTarget),
	}
}
