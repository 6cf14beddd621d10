package planner

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"elior-fitness/internal/nutrition"
)

var (
	ErrSlotIndex   = errors.New("meal slot index out of range")
	ErrOptionIndex = errors.New("food option index out of range")
	ErrNoCategory  = errors.New("meal slot has no category for macro type")

	ErrNoClient    = errors.New("no client selected")
	ErrNoPlanName  = errors.New("plan name is required")
	ErrNoMeals     = errors.New("plan has no meals")
	ErrUnnamedMeal = errors.New("meal name is required")
)

// Form is the editable state of one meal plan. Every mutation bumps a
// revision so Summary only recomputes when something changed. A Form belongs
// to a single editing session and is not safe for concurrent use.
type Form struct {
	plan nutrition.MealPlan

	rev       uint64
	cachedRev uint64
	cached    *Summary
}

// NewForm starts an empty plan for a client.
func NewForm(clientID int64, name string) *Form {
	return &Form{plan: nutrition.MealPlan{
		ClientID:  clientID,
		Name:      name,
		MealSlots: []nutrition.MealSlot{},
	}}
}

// Load builds a form from an existing plan, e.g. one read from a file. The
// meal count is taken from the slots and every slot is given exactly the
// protein, carb and fat categories, keeping any options already present.
func Load(plan nutrition.MealPlan) *Form {
	p := plan.Clone()
	for i := range p.MealSlots {
		p.MealSlots[i] = repairSlot(p.MealSlots[i])
	}
	p.NumberOfMeals = len(p.MealSlots)
	return &Form{plan: p}
}

func repairSlot(s nutrition.MealSlot) nutrition.MealSlot {
	fixed := nutrition.NewMealSlot(s.Name)
	types := nutrition.MacroTypes()
	for i, cat := range s.MacroCategories {
		macro := cat.MacroType
		// Untyped categories take the type of their position.
		if macro == "" && i < len(types) {
			macro = types[i]
		}
		dst := fixed.Category(macro)
		if dst == nil {
			log.Printf("Warning: dropping category %q of meal %q with %d options", cat.MacroType, s.Name, len(cat.FoodOptions))
			continue
		}
		dst.QuantityInstruction = cat.QuantityInstruction
		for _, opt := range cat.FoodOptions {
			opt.ServingSize = nutrition.NormalizeServingSize(opt.ServingSize)
			dst.FoodOptions = append(dst.FoodOptions, opt)
		}
	}
	s.MacroCategories = fixed.MacroCategories
	return s
}

func (f *Form) touch() {
	f.rev++
}

// Plan returns a deep copy of the current plan.
func (f *Form) Plan() nutrition.MealPlan {
	return f.plan.Clone()
}

// NumberOfMeals is the meal count sent with the plan.
func (f *Form) NumberOfMeals() int {
	return f.plan.NumberOfMeals
}

// SetDetails updates the plan header fields.
func (f *Form) SetDetails(clientID int64, name, description string) {
	f.plan.ClientID = clientID
	f.plan.Name = name
	f.plan.Description = description
	f.touch()
}

// SetPlanTargets sets the daily targets. Nil clears a target.
func (f *Form) SetPlanTargets(calories, protein, carbs, fat *float64) {
	f.plan.TotalCalories = nutrition.CloneFloat(calories)
	f.plan.ProteinTarget = nutrition.CloneFloat(protein)
	f.plan.CarbTarget = nutrition.CloneFloat(carbs)
	f.plan.FatTarget = nutrition.CloneFloat(fat)
	f.touch()
}

// AddMealSlot appends a new meal named "Meal N" and returns its index.
func (f *Form) AddMealSlot() int {
	f.plan.MealSlots = append(f.plan.MealSlots, nutrition.NewMealSlot(fmt.Sprintf("Meal %d", len(f.plan.MealSlots)+1)))
	f.plan.NumberOfMeals++
	f.touch()
	return len(f.plan.MealSlots) - 1
}

// RemoveMealSlot removes the slot at i, keeping the order of the rest.
func (f *Form) RemoveMealSlot(i int) error {
	if i < 0 || i >= len(f.plan.MealSlots) {
		return fmt.Errorf("remove meal %d: %w", i, ErrSlotIndex)
	}
	f.plan.MealSlots = append(f.plan.MealSlots[:i:i], f.plan.MealSlots[i+1:]...)
	f.plan.NumberOfMeals--
	f.touch()
	return nil
}

func (f *Form) slot(i int) (*nutrition.MealSlot, error) {
	if i < 0 || i >= len(f.plan.MealSlots) {
		return nil, fmt.Errorf("meal %d: %w", i, ErrSlotIndex)
	}
	return &f.plan.MealSlots[i], nil
}

func (f *Form) category(i int, m nutrition.MacroType) (*nutrition.MacroCategory, error) {
	s, err := f.slot(i)
	if err != nil {
		return nil, err
	}
	cat := s.Category(m)
	if cat == nil {
		return nil, fmt.Errorf("meal %d %q: %w", i, m, ErrNoCategory)
	}
	return cat, nil
}

// RenameMeal sets a meal's name and time suggestion.
func (f *Form) RenameMeal(i int, name, timeSuggestion string) error {
	s, err := f.slot(i)
	if err != nil {
		return err
	}
	s.Name = name
	s.TimeSuggestion = timeSuggestion
	f.touch()
	return nil
}

// SetMealTargets sets per-meal targets. Nil clears a target.
func (f *Form) SetMealTargets(i int, calories, protein, carbs, fat *float64) error {
	s, err := f.slot(i)
	if err != nil {
		return err
	}
	s.TargetCalories = nutrition.CloneFloat(calories)
	s.TargetProtein = nutrition.CloneFloat(protein)
	s.TargetCarbs = nutrition.CloneFloat(carbs)
	s.TargetFat = nutrition.CloneFloat(fat)
	f.touch()
	return nil
}

// SetQuantityInstruction sets the free-text amount for a whole category.
func (f *Form) SetQuantityInstruction(i int, m nutrition.MacroType, text string) error {
	cat, err := f.category(i, m)
	if err != nil {
		return err
	}
	cat.QuantityInstruction = text
	f.touch()
	return nil
}

// AddFoodOption appends an alternative to a category.
func (f *Form) AddFoodOption(i int, m nutrition.MacroType, opt nutrition.FoodOption) error {
	cat, err := f.category(i, m)
	if err != nil {
		return err
	}
	opt = opt.Clone()
	opt.ServingSize = nutrition.NormalizeServingSize(opt.ServingSize)
	cat.FoodOptions = append(cat.FoodOptions, opt)
	f.touch()
	return nil
}

// UpdateFoodOption replaces the option at index j.
func (f *Form) UpdateFoodOption(i int, m nutrition.MacroType, j int, opt nutrition.FoodOption) error {
	cat, err := f.category(i, m)
	if err != nil {
		return err
	}
	if j < 0 || j >= len(cat.FoodOptions) {
		return fmt.Errorf("meal %d %q option %d: %w", i, m, j, ErrOptionIndex)
	}
	opt = opt.Clone()
	opt.ServingSize = nutrition.NormalizeServingSize(opt.ServingSize)
	cat.FoodOptions[j] = opt
	f.touch()
	return nil
}

// RemoveFoodOption removes the option at index j.
func (f *Form) RemoveFoodOption(i int, m nutrition.MacroType, j int) error {
	cat, err := f.category(i, m)
	if err != nil {
		return err
	}
	if j < 0 || j >= len(cat.FoodOptions) {
		return fmt.Errorf("meal %d %q option %d: %w", i, m, j, ErrOptionIndex)
	}
	cat.FoodOptions = append(cat.FoodOptions[:j:j], cat.FoodOptions[j+1:]...)
	f.touch()
	return nil
}

// Validate reports the first missing required field.
func (f *Form) Validate() error {
	return Validate(f.plan)
}

// CanSubmit is the predicate that gates submission.
func (f *Form) CanSubmit() bool {
	return f.Validate() == nil
}

// Validate checks the fields a plan needs before it can be submitted.
func Validate(p nutrition.MealPlan) error {
	if p.ClientID <= 0 {
		return ErrNoClient
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrNoPlanName
	}
	if len(p.MealSlots) == 0 {
		return ErrNoMeals
	}
	for i, s := range p.MealSlots {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("meal %d: %w", i+1, ErrUnnamedMeal)
		}
	}
	return nil
}

// Summary returns the derived totals, recomputing only after a mutation.
func (f *Form) Summary() *Summary {
	if f.cached == nil || f.cachedRev != f.rev {
		f.cached = Summarize(f.plan)
		f.cachedRev = f.rev
	}
	return f.cached
}
