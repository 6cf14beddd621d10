package nutrition

import (
	"math"
	"testing"
)

func option(name string, calories float64, serving string) FoodOption {
	return FoodOption{Name: name, Calories: Float(calories), ServingSize: serving}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCategoryTotals(t *testing.T) {
	t.Run("SingleOption", func(t *testing.T) {
		cat := MacroCategory{MacroType: Protein, FoodOptions: []FoodOption{option("Chicken", 200, "150")}}
		got := CategoryTotals(cat)
		if got.Calories != 300 {
			t.Errorf("Expected 300 calories, got %v", got.Calories)
		}
	})

	t.Run("AlternativesTakeMaxNotSum", func(t *testing.T) {
		cat := MacroCategory{MacroType: Carb, FoodOptions: []FoodOption{
			option("Rice", 200, "150"),
			option("Potato", 100, "300"),
		}}
		got := CategoryTotals(cat)
		if got.Calories != 300 {
			t.Errorf("Expected 300 calories, got %v", got.Calories)
		}
	})

	t.Run("MaxIsPerField", func(t *testing.T) {
		cat := MacroCategory{MacroType: Protein, FoodOptions: []FoodOption{
			{Name: "Tuna", Calories: Float(100), Protein: Float(25), ServingSize: "100"},
			{Name: "Eggs", Calories: Float(150), Protein: Float(12), Fat: Float(10), ServingSize: "100"},
		}}
		got := CategoryTotals(cat)
		want := Macros{Calories: 150, Protein: 25, Fat: 10}
		if got != want {
			t.Errorf("Expected %+v, got %+v", want, got)
		}
	})

	t.Run("FallsBackToQuantityInstruction", func(t *testing.T) {
		cat := MacroCategory{
			MacroType:           Fat,
			QuantityInstruction: "20g",
			FoodOptions:         []FoodOption{option("Tahini", 600, "")},
		}
		got := CategoryTotals(cat)
		if !approx(got.Calories, 120) {
			t.Errorf("Expected 120 calories, got %v", got.Calories)
		}
	})

	t.Run("NoOptions", func(t *testing.T) {
		got := CategoryTotals(MacroCategory{MacroType: Fat, QuantityInstruction: "30"})
		if got != (Macros{}) {
			t.Errorf("Expected zero totals, got %+v", got)
		}
	})

	t.Run("NoUsableQuantity", func(t *testing.T) {
		cat := MacroCategory{
			MacroType:           Carb,
			QuantityInstruction: "as much as you like",
			FoodOptions: []FoodOption{
				option("Bread", 250, "a slice"),
				option("Oats", 380, "0"),
			},
		}
		got := CategoryTotals(cat)
		if got != (Macros{}) {
			t.Errorf("Expected zero totals, got %+v", got)
		}
		if g := RecommendedGrams(cat); g != 0 {
			t.Errorf("Expected 0 recommended grams, got %v", g)
		}
	})

	t.Run("NilMacrosCountAsZero", func(t *testing.T) {
		cat := MacroCategory{MacroType: Protein, FoodOptions: []FoodOption{{Name: "Mystery", ServingSize: "100"}}}
		if got := CategoryTotals(cat); got != (Macros{}) {
			t.Errorf("Expected zero totals, got %+v", got)
		}
	})
}

func TestRecommendedGrams(t *testing.T) {
	cat := MacroCategory{
		QuantityInstruction: "120",
		FoodOptions: []FoodOption{
			option("A", 100, "150g"),
			option("B", 100, ""),
			option("C", 100, "90"),
		},
	}
	if got := RecommendedGrams(cat); got != 150 {
		t.Errorf("Expected 150, got %v", got)
	}
}

func TestDensity(t *testing.T) {
	d := Density(option("Rice", 200, "150"))
	if !approx(d.Calories, 200.0/150.0) {
		t.Errorf("Expected %v kcal/g, got %v", 200.0/150.0, d.Calories)
	}

	d = Density(option("Rice", 200, ""))
	if !approx(d.Calories, 2) {
		t.Errorf("Expected 2 kcal/g without a serving size, got %v", d.Calories)
	}
}

func TestMealAndPlanTotals(t *testing.T) {
	slot := NewMealSlot("Meal 1")
	slot.Category(Protein).FoodOptions = []FoodOption{option("Chicken", 200, "150")}
	slot.Category(Carb).FoodOptions = []FoodOption{option("Rice", 130, "200")}
	slot.Category(Fat).FoodOptions = []FoodOption{option("Olive oil", 900, "10")}

	meal := MealTotals(slot)
	if !approx(meal.Calories, 300+260+90) {
		t.Errorf("Expected 650 calories, got %v", meal.Calories)
	}

	plan := PlanTotals([]MealSlot{slot, slot})
	if !approx(plan.Calories, 1300) {
		t.Errorf("Expected 1300 calories, got %v", plan.Calories)
	}

	again := PlanTotals([]MealSlot{slot, slot})
	if again != plan {
		t.Errorf("Expected identical totals on recompute, got %+v and %+v", plan, again)
	}

	if got := PlanTotals(nil).String(); got != "0 kcal, protein 0g, carbs 0g, fat 0g" {
		t.Errorf("Unexpected empty plan summary: %q", got)
	}
}

func TestMacrosRounded(t *testing.T) {
	got := Macros{Calories: 299.5, Protein: 10.49, Carbs: 0.5, Fat: 2.51}.Rounded()
	want := Macros{Calories: 300, Protein: 10, Carbs: 1, Fat: 3}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}
