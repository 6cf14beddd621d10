package nutrition

import (
	"fmt"
	"math"
)

// gramsPerReference is the amount macro values on a FoodOption refer to.
const gramsPerReference = 100

// Macros holds calories and macronutrient grams.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Add returns the field-wise sum.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fat:      m.Fat + o.Fat,
	}
}

// Max returns the field-wise maximum.
func (m Macros) Max(o Macros) Macros {
	return Macros{
		Calories: math.Max(m.Calories, o.Calories),
		Protein:  math.Max(m.Protein, o.Protein),
		Carbs:    math.Max(m.Carbs, o.Carbs),
		Fat:      math.Max(m.Fat, o.Fat),
	}
}

// Scale multiplies every field by f.
func (m Macros) Scale(f float64) Macros {
	return Macros{
		Calories: m.Calories * f,
		Protein:  m.Protein * f,
		Carbs:    m.Carbs * f,
		Fat:      m.Fat * f,
	}
}

// Rounded rounds every field to the nearest integer for display.
func (m Macros) Rounded() Macros {
	return Macros{
		Calories: math.Round(m.Calories),
		Protein:  math.Round(m.Protein),
		Carbs:    math.Round(m.Carbs),
		Fat:      math.Round(m.Fat),
	}
}

func (m Macros) String() string {
	r := m.Rounded()
	return fmt.Sprintf("%.0f kcal, protein %.0fg, carbs %.0fg, fat %.0fg", r.Calories, r.Protein, r.Carbs, r.Fat)
}

func valueOf(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}

func (o FoodOption) macros() Macros {
	return Macros{
		Calories: valueOf(o.Calories),
		Protein:  valueOf(o.Protein),
		Carbs:    valueOf(o.Carbs),
		Fat:      valueOf(o.Fat),
	}
}

// PortionGrams is the gram amount assumed for one option: its own serving
// size, else the category's quantity instruction, else 0.
func PortionGrams(opt FoodOption, instruction string) float64 {
	if g, ok := positiveQuantity(opt.ServingSize); ok {
		return g
	}
	if g, ok := positiveQuantity(instruction); ok {
		return g
	}
	return 0
}

// RecommendedGrams is the largest portion among the category's options.
func RecommendedGrams(cat MacroCategory) float64 {
	var best float64
	for _, opt := range cat.FoodOptions {
		best = math.Max(best, PortionGrams(opt, cat.QuantityInstruction))
	}
	return best
}

// Density returns the option's macros per gram, dividing by its own serving
// size or by 100 when it has none.
func Density(opt FoodOption) Macros {
	divisor := float64(gramsPerReference)
	if g, ok := positiveQuantity(opt.ServingSize); ok {
		divisor = g
	}
	return opt.macros().Scale(1 / divisor)
}

// OptionTotals is what eating the recommended portion of opt provides.
func OptionTotals(opt FoodOption, instruction string) Macros {
	grams := PortionGrams(opt, instruction)
	if grams == 0 {
		return Macros{}
	}
	return opt.macros().Scale(grams / gramsPerReference)
}

// CategoryTotals takes, per field, the highest value any alternative in the
// category would provide. Options are alternatives, so they are not summed.
func CategoryTotals(cat MacroCategory) Macros {
	var out Macros
	for _, opt := range cat.FoodOptions {
		out = out.Max(OptionTotals(opt, cat.QuantityInstruction))
	}
	return out
}

// MealTotals sums the slot's category totals.
func MealTotals(slot MealSlot) Macros {
	var out Macros
	for _, cat := range slot.MacroCategories {
		out = out.Add(CategoryTotals(cat))
	}
	return out
}

// PlanTotals sums the totals of every meal.
func PlanTotals(slots []MealSlot) Macros {
	var out Macros
	for _, s := range slots {
		out = out.Add(MealTotals(s))
	}
	return out
}
