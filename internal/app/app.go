package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"elior-fitness/internal/backend"
	"elior-fitness/internal/clipper"
	"elior-fitness/internal/config"
	"elior-fitness/internal/metrics"
	"elior-fitness/internal/nutrition"
	"elior-fitness/internal/planner"
)

// App holds the application's dependencies for the command line.
type App struct {
	bank         backend.Client
	foodClipper  *clipper.Clipper
	metricsStore *metrics.Store
	cfg          *config.Config
	out          io.Writer
}

// NewApp creates and initializes a new App instance. foodClipper and
// metricsStore may be nil when their commands are not used.
func NewApp(bank backend.Client, foodClipper *clipper.Clipper, metricsStore *metrics.Store, cfg *config.Config) *App {
	return &App{
		bank:         bank,
		foodClipper:  foodClipper,
		metricsStore: metricsStore,
		cfg:          cfg,
		out:          os.Stdout,
	}
}

// LoadPlanFile reads a plan JSON file into an editing form.
func LoadPlanFile(path string) (*planner.Form, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}

	var plan nutrition.MealPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan file %s: %w", path, err)
	}
	return planner.Load(plan), nil
}

// Totals prints the nutrition breakdown of a plan file.
func (a *App) Totals(path string) error {
	form, err := LoadPlanFile(path)
	if err != nil {
		return err
	}
	fmt.Fprint(a.out, form.Summary().Text())
	return nil
}

// Submit validates a plan file and sends it to the backend.
func (a *App) Submit(ctx context.Context, path string) error {
	form, err := LoadPlanFile(path)
	if err != nil {
		return err
	}
	if err := form.Validate(); err != nil {
		return fmt.Errorf("plan is not ready to submit: %w", err)
	}

	submitted, err := a.bank.SubmitPlan(ctx, form.Plan())
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Detail != "" {
			return fmt.Errorf("backend rejected plan: %s", apiErr.Detail)
		}
		return fmt.Errorf("failed to submit plan: %w", err)
	}

	fmt.Fprintf(a.out, "Plan %q submitted with ID %d.\n", form.Plan().Name, submitted.ID)
	fmt.Fprint(a.out, form.Summary().Text())
	return nil
}

// ListBank prints the meal bank foods of one macro type.
func (a *App) ListBank(ctx context.Context, macro string) error {
	m, ok := nutrition.NormalizeMacroType(macro)
	if !ok {
		return fmt.Errorf("unknown macro type %q", macro)
	}

	items, err := a.bank.ListMealBank(ctx, m)
	if err != nil {
		return fmt.Errorf("failed to list meal bank: %w", err)
	}

	fmt.Fprintf(a.out, "%d %s foods in the meal bank.\n", len(items), m)
	for _, item := range items {
		opt := item.ToFoodOption()
		opt.ServingSize = ""
		fmt.Fprintf(a.out, "%6d  %-30s %s per 100g", item.ID, item.Name, nutrition.OptionTotals(opt, "100"))
		if serving := nutrition.NormalizeServingSize(item.ServingSize); serving != "" {
			fmt.Fprintf(a.out, ", serving %sg", serving)
		}
		fmt.Fprintln(a.out)
	}
	return nil
}

// ImportFood adds the food described on a nutrition page to the meal bank.
func (a *App) ImportFood(ctx context.Context, url, macro string, public bool) error {
	if a.foodClipper == nil {
		return errors.New("food import is not configured")
	}
	m, ok := nutrition.NormalizeMacroType(macro)
	if !ok {
		return fmt.Errorf("unknown macro type %q", macro)
	}

	item, err := a.foodClipper.ClipURL(ctx, url, m, public)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", url, err)
	}
	fmt.Fprintf(a.out, "Saved %q to the %s meal bank with ID %d.\n", item.Name, item.MacroType, item.ID)
	return nil
}

// CleanupMetrics removes call metrics older than days.
func (a *App) CleanupMetrics(days int) (int64, error) {
	if a.metricsStore == nil {
		return 0, errors.New("metrics store is not configured")
	}
	affected, err := a.metricsStore.Cleanup(days)
	if err != nil {
		return 0, fmt.Errorf("cleanup failed: %w", err)
	}
	return affected, nil
}
