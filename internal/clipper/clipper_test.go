package clipper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"elior-fitness/internal/backend"
	"elior-fitness/internal/llm"
	"elior-fitness/internal/nutrition"
	"elior-fitness/internal/shared"

	"github.com/PuerkitoBio/goquery"
)

// --- Mocks ---
type MockBackend struct {
	Created     *backend.NewMealBankItem
	ShouldError bool
}

func (m *MockBackend) SubmitPlan(ctx context.Context, plan nutrition.MealPlan) (*backend.SubmittedPlan, error) {
	return nil, nil
}

func (m *MockBackend) ListMealBank(ctx context.Context, macro nutrition.MacroType) ([]backend.MealBankItem, error) {
	return nil, nil
}

func (m *MockBackend) CreateMealBankItem(ctx context.Context, item backend.NewMealBankItem) (*backend.MealBankItem, error) {
	if m.ShouldError {
		return nil, fmt.Errorf("mock error")
	}
	m.Created = &item
	return &backend.MealBankItem{
		ID:          7,
		Name:        item.Name,
		MacroType:   item.MacroType,
		Calories:    item.Calories,
		Protein:     item.Protein,
		Carbs:       item.Carbs,
		Fat:         item.Fat,
		ServingSize: item.ServingSize,
	}, nil
}

func (m *MockBackend) WithToken(token string) backend.Client { return m }

type MockTextGenerator struct {
	Response    string
	ShouldError bool
	Prompt      string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.Prompt = prompt
	if m.ShouldError {
		return llm.ContentResponse{}, fmt.Errorf("mock ai error")
	}
	return llm.ContentResponse{
		Content: m.Response,
		Usage:   shared.TokenUsage{Model: "mock", PromptTokens: 50, CompletionTokens: 10},
	}, nil
}

type MockRecorder struct {
	Calls []shared.CallMeta
	Err   error
}

func (m *MockRecorder) RecordCall(meta shared.CallMeta) error {
	m.Calls = append(m.Calls, meta)
	return m.Err
}

func serveHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	}))
	t.Cleanup(ts.Close)
	return ts
}

const tablePage = `
<html>
	<head>
		<title>Shop | Chicken Breast</title>
		<script>track()</script>
	</head>
	<body>
		<h1>Chicken Breast</h1>
		<table>
			<tr><th>Nutrition</th><th>Per 100g</th></tr>
			<tr><td>Energy</td><td>690 kJ / 165 kcal</td></tr>
			<tr><td>Fat</td><td>3,6 g</td></tr>
			<tr><td>of which saturates</td><td>1.0 g</td></tr>
			<tr><td>Carbohydrate</td><td>0 g</td></tr>
			<tr><td>of which sugars</td><td>0 g</td></tr>
			<tr><td>Protein</td><td>31 g</td></tr>
		</table>
		<footer>Copyright 2026</footer>
	</body>
</html>`

// --- Tests ---

func TestExtractFromNutritionTable(t *testing.T) {
	ts := serveHTML(t, tablePage)
	gen := &MockTextGenerator{}
	c := NewClipper(&MockBackend{}, gen, nil)

	food, err := c.Extract(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if food.Name != "Chicken Breast" {
		t.Errorf("Expected name 'Chicken Breast', got '%s'", food.Name)
	}
	checks := []struct {
		name string
		got  *float64
		want float64
	}{
		{"calories", food.Calories, 165},
		{"protein", food.Protein, 31},
		{"carbs", food.Carbs, 0},
		{"fat", food.Fat, 3.6},
	}
	for _, c := range checks {
		if c.got == nil {
			t.Errorf("Expected %s %.1f, got nil", c.name, c.want)
			continue
		}
		if *c.got != c.want {
			t.Errorf("Expected %s %.1f, got %.1f", c.name, c.want, *c.got)
		}
	}
	if gen.Prompt != "" {
		t.Error("Expected the LLM not to be called when a table is present")
	}
}

func TestExtractFallsBackToLLM(t *testing.T) {
	ts := serveHTML(t, `<html><body><h1>Rice Cakes</h1><p>Per 100g: 387 calories, 8g protein.</p><script>x()</script></body></html>`)
	gen := &MockTextGenerator{
		Response: "```json\n{\"name\": \"\", \"calories\": 387, \"protein\": 8, \"carbs\": 81.5, \"fat\": 2.8, \"serving_size\": \"9\"}\n```",
	}
	rec := &MockRecorder{}
	c := NewClipper(&MockBackend{}, gen, rec)

	food, err := c.Extract(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if food.Name != "Rice Cakes" {
		t.Errorf("Expected page title as name, got '%s'", food.Name)
	}
	if food.Carbs == nil || *food.Carbs != 81.5 {
		t.Errorf("Expected carbs 81.5, got %v", food.Carbs)
	}
	if food.ServingSize != "9" {
		t.Errorf("Expected serving size '9', got '%s'", food.ServingSize)
	}
	if strings.Contains(gen.Prompt, "x()") {
		t.Error("Expected scripts to be stripped from the prompt")
	}
	if !strings.Contains(gen.Prompt, "387 calories") {
		t.Error("Expected page text in the prompt")
	}
	if len(rec.Calls) != 1 || rec.Calls[0].Usage.PromptTokens != 50 {
		t.Errorf("Expected one recorded LLM call with usage, got %+v", rec.Calls)
	}
}

func TestExtractWithoutTableOrLLM(t *testing.T) {
	ts := serveHTML(t, `<html><body><p>Nothing here</p></body></html>`)
	c := NewClipper(&MockBackend{}, nil, nil)

	_, err := c.Extract(context.Background(), ts.URL)
	if !errors.Is(err, ErrNoNutritionTable) {
		t.Errorf("Expected ErrNoNutritionTable, got %v", err)
	}
}

func TestExtractLLMErrors(t *testing.T) {
	ts := serveHTML(t, `<html><body><p>Nothing here</p></body></html>`)

	t.Run("GenerationFails", func(t *testing.T) {
		rec := &MockRecorder{}
		c := NewClipper(&MockBackend{}, &MockTextGenerator{ShouldError: true}, rec)
		if _, err := c.Extract(context.Background(), ts.URL); err == nil {
			t.Error("Expected error when the LLM fails")
		}
		if len(rec.Calls) != 1 || rec.Calls[0].Err == nil {
			t.Errorf("Expected the failed call to be recorded, got %+v", rec.Calls)
		}
	})

	t.Run("BadJSON", func(t *testing.T) {
		c := NewClipper(&MockBackend{}, &MockTextGenerator{Response: "not json"}, nil)
		if _, err := c.Extract(context.Background(), ts.URL); err == nil {
			t.Error("Expected error for unparseable LLM response")
		}
	})
}

func TestClipURL(t *testing.T) {
	ts := serveHTML(t, tablePage)

	t.Run("Success", func(t *testing.T) {
		bank := &MockBackend{}
		c := NewClipper(bank, nil, nil)

		item, err := c.ClipURL(context.Background(), ts.URL, nutrition.Protein, true)
		if err != nil {
			t.Fatalf("ClipURL failed: %v", err)
		}
		if item.ID != 7 {
			t.Errorf("Expected created item ID 7, got %d", item.ID)
		}
		if bank.Created == nil {
			t.Fatal("Expected item to be created in the meal bank")
		}
		if bank.Created.MacroType != nutrition.Protein || !bank.Created.IsPublic {
			t.Errorf("Expected public protein item, got %+v", bank.Created)
		}
	})

	t.Run("InvalidMacro", func(t *testing.T) {
		bank := &MockBackend{}
		c := NewClipper(bank, nil, nil)
		if _, err := c.ClipURL(context.Background(), ts.URL, nutrition.MacroType("fiber"), false); err == nil {
			t.Error("Expected error for invalid macro type")
		}
		if bank.Created != nil {
			t.Error("Expected nothing to be created")
		}
	})

	t.Run("BackendError", func(t *testing.T) {
		c := NewClipper(&MockBackend{ShouldError: true}, nil, nil)
		if _, err := c.ClipURL(context.Background(), ts.URL, nutrition.Fat, false); err == nil {
			t.Error("Expected error when the backend fails")
		}
	})
}

func TestFetchNon200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	c := NewClipper(&MockBackend{}, nil, nil)
	if _, err := c.Extract(context.Background(), ts.URL); err == nil {
		t.Error("Expected error for 404 page")
	}
}

func TestEnergyValue(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"165 kcal", 165, true},
		{"690 kj / 165 kcal", 165, true},
		{"165 kcal (690 kj)", 165, true},
		{"690 kj", 0, false},
		{"165", 165, true},
	}
	for _, c := range cases {
		got, ok := energyValue(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("energyValue(%q) = %v, %v; want %v, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestCleanTextKeepsRunesWhole(t *testing.T) {
	body := "a" + strings.Repeat("ח", 7000)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><p>" + body + "</p></body></html>"))
	if err != nil {
		t.Fatalf("Failed to parse HTML: %v", err)
	}

	text := cleanText(doc)
	if !utf8.ValidString(text) {
		t.Fatal("Expected truncated text to be valid UTF-8")
	}
	if len(text) > maxPromptText || len(text) < maxPromptText-utf8.UTFMax {
		t.Errorf("Expected about %d bytes, got %d", maxPromptText, len(text))
	}
	if !strings.HasPrefix(body, text) {
		t.Error("Expected a prefix of the page text")
	}
}

func TestExtractSurvivesRecorderFailure(t *testing.T) {
	ts := serveHTML(t, `<html><body><h1>Dates</h1><p>282 kcal</p></body></html>`)
	gen := &MockTextGenerator{Response: `{"calories": 282, "carbs": 75}`}
	rec := &MockRecorder{Err: errors.New("disk full")}
	c := NewClipper(&MockBackend{}, gen, rec)

	food, err := c.Extract(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Expected extraction to succeed when metrics fail, got %v", err)
	}
	if food.Calories == nil || *food.Calories != 282 {
		t.Errorf("Expected 282 kcal, got %v", food.Calories)
	}
	if len(rec.Calls) != 1 {
		t.Errorf("Expected the call to be offered to the recorder, got %d", len(rec.Calls))
	}
}
