package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"elior-fitness/internal/backend"
	"elior-fitness/internal/config"
	"elior-fitness/internal/database"
	"elior-fitness/internal/metrics"
	"elior-fitness/internal/nutrition"
)

// --- Mocks ---
type MockBackend struct {
	Submitted *nutrition.MealPlan
	Items     []backend.MealBankItem
	Err       error
}

func (m *MockBackend) SubmitPlan(ctx context.Context, plan nutrition.MealPlan) (*backend.SubmittedPlan, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Submitted = &plan
	return &backend.SubmittedPlan{ID: 11, Name: plan.Name}, nil
}

func (m *MockBackend) ListMealBank(ctx context.Context, macro nutrition.MacroType) ([]backend.MealBankItem, error) {
	return m.Items, m.Err
}

func (m *MockBackend) CreateMealBankItem(ctx context.Context, item backend.NewMealBankItem) (*backend.MealBankItem, error) {
	return nil, m.Err
}

func (m *MockBackend) WithToken(token string) backend.Client { return m }

// --- Helpers ---

const planFile = `{
	"client_id": 3,
	"name": "Bulk",
	"meal_slots": [
		{
			"name": "Lunch",
			"target_calories": 400,
			"macro_categories": [
				{"macro_type": "MacroType.CARB", "quantity_instruction": "200g",
				 "food_options": [{"name": "Rice", "calories": 130, "carbs": 28, "serving_size": ""}]}
			]
		}
	]
}`

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write plan file: %v", err)
	}
	return path
}

func newTestApp(bank backend.Client, store *metrics.Store) (*App, *bytes.Buffer) {
	a := NewApp(bank, nil, store, &config.Config{})
	var out bytes.Buffer
	a.out = &out
	return a, &out
}

// --- Tests ---

func TestLoadPlanFile(t *testing.T) {
	form, err := LoadPlanFile(writePlan(t, planFile))
	if err != nil {
		t.Fatalf("LoadPlanFile failed: %v", err)
	}
	plan := form.Plan()
	if plan.NumberOfMeals != 1 {
		t.Errorf("Expected 1 meal, got %d", plan.NumberOfMeals)
	}
	if len(plan.MealSlots[0].MacroCategories) != 3 {
		t.Errorf("Expected 3 categories, got %d", len(plan.MealSlots[0].MacroCategories))
	}

	if _, err := LoadPlanFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := LoadPlanFile(writePlan(t, "{not json")); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestTotals(t *testing.T) {
	a, out := newTestApp(&MockBackend{}, nil)
	if err := a.Totals(writePlan(t, planFile)); err != nil {
		t.Fatalf("Totals failed: %v", err)
	}

	text := out.String()
	// 130 kcal per 100g at 200g
	if !strings.Contains(text, "calories: 260 (under budget by 140)") {
		t.Errorf("Expected meal calorie budget, got:\n%s", text)
	}
	if !strings.Contains(text, "Plan total") {
		t.Errorf("Expected plan total section, got:\n%s", text)
	}
}

func TestSubmit(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		bank := &MockBackend{}
		a, out := newTestApp(bank, nil)
		if err := a.Submit(context.Background(), writePlan(t, planFile)); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if bank.Submitted == nil || bank.Submitted.ClientID != 3 {
			t.Errorf("Expected plan for client 3 to be submitted, got %+v", bank.Submitted)
		}
		if !strings.Contains(out.String(), "submitted with ID 11") {
			t.Errorf("Expected confirmation, got:\n%s", out.String())
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		bank := &MockBackend{}
		a, _ := newTestApp(bank, nil)
		err := a.Submit(context.Background(), writePlan(t, `{"client_id": 3, "name": "Bulk"}`))
		if err == nil {
			t.Fatal("Expected error for a plan without meals")
		}
		if bank.Submitted != nil {
			t.Error("Expected invalid plan not to be submitted")
		}
	})

	t.Run("BackendDetail", func(t *testing.T) {
		bank := &MockBackend{Err: &backend.APIError{StatusCode: 422, Detail: "client_id: not found"}}
		a, _ := newTestApp(bank, nil)
		err := a.Submit(context.Background(), writePlan(t, planFile))
		if err == nil || !strings.Contains(err.Error(), "client_id: not found") {
			t.Errorf("Expected backend detail in error, got %v", err)
		}
	})
}

func TestListBank(t *testing.T) {
	bank := &MockBackend{Items: []backend.MealBankItem{
		{ID: 1, Name: "Oats", Calories: nutrition.Float(389), Carbs: nutrition.Float(66), ServingSize: "40"},
	}}
	a, out := newTestApp(bank, nil)

	if err := a.ListBank(context.Background(), "Carbs"); err != nil {
		t.Fatalf("ListBank failed: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "1 carb foods") {
		t.Errorf("Expected count line, got:\n%s", text)
	}
	if !strings.Contains(text, "389 kcal") || !strings.Contains(text, "serving 40g") {
		t.Errorf("Expected item line, got:\n%s", text)
	}

	if err := a.ListBank(context.Background(), "fiber"); err == nil {
		t.Error("Expected error for unknown macro type")
	}
}

func TestImportFoodNotConfigured(t *testing.T) {
	a, _ := newTestApp(&MockBackend{}, nil)
	if err := a.ImportFood(context.Background(), "https://example.com", "protein", false); err == nil {
		t.Error("Expected error without a clipper")
	}
}

func TestCleanupMetrics(t *testing.T) {
	db, err := database.NewDB(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	store := metrics.NewStore(db.SQL)
	if err := store.Record(metrics.CallMetric{Name: "Old", Timestamp: time.Now().UTC().AddDate(0, 0, -60)}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(metrics.CallMetric{Name: "New"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	a, _ := newTestApp(&MockBackend{}, store)
	affected, err := a.CleanupMetrics(30)
	if err != nil {
		t.Fatalf("CleanupMetrics failed: %v", err)
	}
	if affected != 1 {
		t.Errorf("Expected 1 record removed, got %d", affected)
	}

	noStore, _ := newTestApp(&MockBackend{}, nil)
	if _, err := noStore.CleanupMetrics(30); err == nil {
		t.Error("Expected error without a metrics store")
	}
}
