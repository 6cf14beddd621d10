package nutrition

// FoodOption is one food a client may choose inside a macro category.
// Macro values are per 100 grams; nil means unknown.
type FoodOption struct {
	Name        string   `json:"name"`
	NameHebrew  string   `json:"name_hebrew"`
	Calories    *float64 `json:"calories"`
	Protein     *float64 `json:"protein"`
	Carbs       *float64 `json:"carbs"`
	Fat         *float64 `json:"fat"`
	ServingSize string   `json:"serving_size"`
}

// MacroCategory groups alternative food options for one macro type.
type MacroCategory struct {
	MacroType           MacroType    `json:"macro_type"`
	QuantityInstruction string       `json:"quantity_instruction"`
	FoodOptions         []FoodOption `json:"food_options"`
}

// MealSlot is one meal of a plan. It always holds one category per macro type.
type MealSlot struct {
	Name            string          `json:"name"`
	TimeSuggestion  string          `json:"time_suggestion"`
	MacroCategories []MacroCategory `json:"macro_categories"`
	TargetCalories  *float64        `json:"target_calories"`
	TargetProtein   *float64        `json:"target_protein"`
	TargetCarbs     *float64        `json:"target_carbs"`
	TargetFat       *float64        `json:"target_fat"`
}

// MealPlan is the full plan graph sent to the backend in one submission.
type MealPlan struct {
	ClientID      int64      `json:"client_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	NumberOfMeals int        `json:"number_of_meals"`
	TotalCalories *float64   `json:"total_calories"`
	ProteinTarget *float64   `json:"protein_target"`
	CarbTarget    *float64   `json:"carb_target"`
	FatTarget     *float64   `json:"fat_target"`
	MealSlots     []MealSlot `json:"meal_slots"`
}

// NewMealSlot returns a slot with empty protein, carb and fat categories.
func NewMealSlot(name string) MealSlot {
	types := MacroTypes()
	cats := make([]MacroCategory, len(types))
	for i, t := range types {
		cats[i] = MacroCategory{MacroType: t, FoodOptions: []FoodOption{}}
	}
	return MealSlot{Name: name, MacroCategories: cats}
}

// Category returns the slot's category for t, or nil.
func (s *MealSlot) Category(t MacroType) *MacroCategory {
	for i := range s.MacroCategories {
		if s.MacroCategories[i].MacroType == t {
			return &s.MacroCategories[i]
		}
	}
	return nil
}

// Clone deep-copies the plan so callers can hand it off without sharing slices.
func (p MealPlan) Clone() MealPlan {
	out := p
	out.TotalCalories = CloneFloat(p.TotalCalories)
	out.ProteinTarget = CloneFloat(p.ProteinTarget)
	out.CarbTarget = CloneFloat(p.CarbTarget)
	out.FatTarget = CloneFloat(p.FatTarget)
	out.MealSlots = make([]MealSlot, len(p.MealSlots))
	for i, s := range p.MealSlots {
		out.MealSlots[i] = s.Clone()
	}
	return out
}

// Clone deep-copies the slot.
func (s MealSlot) Clone() MealSlot {
	out := s
	out.TargetCalories = CloneFloat(s.TargetCalories)
	out.TargetProtein = CloneFloat(s.TargetProtein)
	out.TargetCarbs = CloneFloat(s.TargetCarbs)
	out.TargetFat = CloneFloat(s.TargetFat)
	out.MacroCategories = make([]MacroCategory, len(s.MacroCategories))
	for i, c := range s.MacroCategories {
		cc := c
		cc.FoodOptions = make([]FoodOption, len(c.FoodOptions))
		for j, o := range c.FoodOptions {
			cc.FoodOptions[j] = o.Clone()
		}
		out.MacroCategories[i] = cc
	}
	return out
}

// Clone deep-copies the option.
func (o FoodOption) Clone() FoodOption {
	out := o
	out.Calories = CloneFloat(o.Calories)
	out.Protein = CloneFloat(o.Protein)
	out.Carbs = CloneFloat(o.Carbs)
	out.Fat = CloneFloat(o.Fat)
	return out
}

// CloneFloat copies an optional value so the copy does not alias v.
func CloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Float is a convenience for building optional values.
func Float(v float64) *float64 {
	return &v
}
