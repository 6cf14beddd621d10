package clipper

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"elior-fitness/internal/backend"
	"elior-fitness/internal/llm"
	"elior-fitness/internal/nutrition"
	"elior-fitness/internal/shared"

	"github.com/PuerkitoBio/goquery"
)

//go:embed extractor_prompt.md
var extractorPrompt string

var extractorTmpl = template.Must(template.New("extractor").Parse(extractorPrompt))

// maxPromptText bounds the page text sent to the LLM.
const maxPromptText = 12000

// ErrNoNutritionTable is returned when a page has no readable nutrition
// table and no LLM is configured to read it instead.
var ErrNoNutritionTable = errors.New("no nutrition table found")

// ExtractedFood is a food's nutrition facts per 100 grams.
type ExtractedFood struct {
	Name        string   `json:"name"`
	NameHebrew  string   `json:"name_hebrew"`
	Calories    *float64 `json:"calories"`
	Protein     *float64 `json:"protein"`
	Carbs       *float64 `json:"carbs"`
	Fat         *float64 `json:"fat"`
	ServingSize string   `json:"serving_size"`
}

// Clipper imports foods from nutrition web pages into the meal bank.
type Clipper struct {
	bank       backend.Client
	textGen    llm.TextGenerator
	recorder   shared.CallRecorder
	httpClient *http.Client
}

// NewClipper creates a new Clipper. textGen and recorder may be nil; without
// textGen only pages with a nutrition table can be clipped.
func NewClipper(bank backend.Client, textGen llm.TextGenerator, recorder shared.CallRecorder) *Clipper {
	return &Clipper{
		bank:       bank,
		textGen:    textGen,
		recorder:   recorder,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ClipURL extracts the food on the page and saves it to the meal bank under
// the given macro type.
func (c *Clipper) ClipURL(ctx context.Context, url string, macro nutrition.MacroType, public bool) (*backend.MealBankItem, error) {
	if !macro.Valid() {
		return nil, fmt.Errorf("invalid macro type %q", macro)
	}

	food, err := c.Extract(ctx, url)
	if err != nil {
		return nil, err
	}

	item, err := c.bank.CreateMealBankItem(ctx, backend.NewMealBankItem{
		Name:        food.Name,
		NameHebrew:  food.NameHebrew,
		MacroType:   macro,
		Calories:    food.Calories,
		Protein:     food.Protein,
		Carbs:       food.Carbs,
		Fat:         food.Fat,
		ServingSize: food.ServingSize,
		IsPublic:    public,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save to meal bank: %w", err)
	}
	return item, nil
}

// Extract reads nutrition facts from the page, preferring a nutrition table
// and falling back to the LLM.
func (c *Clipper) Extract(ctx context.Context, url string) (*ExtractedFood, error) {
	doc, err := c.fetchDocument(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	title := pageTitle(doc)
	if food, ok := extractFromTables(doc); ok {
		food.Name = title
		return &food, nil
	}

	if c.textGen == nil {
		return nil, ErrNoNutritionTable
	}
	food, err := c.extractWithLLM(ctx, url, title, cleanText(doc))
	if err != nil {
		return nil, err
	}
	if food.Name == "" {
		food.Name = title
	}
	return food, nil
}

func (c *Clipper) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, noscript, .ads, #ads").Remove()
	return doc, nil
}

func pageTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func cleanText(doc *goquery.Document) string {
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if len(text) > maxPromptText {
		end := maxPromptText
		for end > 0 && !utf8.RuneStart(text[end]) {
			end--
		}
		text = text[:end]
	}
	return text
}

// extractFromTables reads label/value rows such as "Protein | 31 g". It needs
// energy plus at least one macro to count as a nutrition table.
func extractFromTables(doc *goquery.Document) (ExtractedFood, bool) {
	var food ExtractedFood
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return
		}
		field := classify(strings.ToLower(strings.TrimSpace(cells.First().Text())))
		if field == "" {
			return
		}

		read := nutrition.ParseQuantity
		if field == "calories" {
			read = energyValue
		}
		var value *float64
		cells.Slice(1, cells.Length()).EachWithBreak(func(_ int, cell *goquery.Selection) bool {
			if v, ok := read(strings.ToLower(cell.Text())); ok {
				value = &v
				return false
			}
			return true
		})
		if value == nil {
			return
		}

		switch field {
		case "calories":
			setOnce(&food.Calories, value)
		case "protein":
			setOnce(&food.Protein, value)
		case "carbs":
			setOnce(&food.Carbs, value)
		case "fat":
			setOnce(&food.Fat, value)
		}
	})

	ok := food.Calories != nil && (food.Protein != nil || food.Carbs != nil || food.Fat != nil)
	return food, ok
}

func classify(label string) string {
	if strings.HasPrefix(label, "of which") || strings.Contains(label, "saturated") ||
		strings.Contains(label, "trans") || strings.Contains(label, "sugar") {
		return ""
	}
	switch {
	case strings.Contains(label, "energy") || strings.Contains(label, "calor") || strings.Contains(label, "kcal"):
		return "calories"
	case strings.Contains(label, "protein"):
		return "protein"
	case strings.Contains(label, "carbohydrate") || strings.HasPrefix(label, "carb"):
		return "carbs"
	case strings.Contains(label, "fat"):
		return "fat"
	}
	return ""
}

// energyValue reads kcal from cells like "1046 kJ / 250 kcal". Cells that
// only state kJ are ignored.
func energyValue(text string) (float64, bool) {
	if !strings.Contains(text, "kj") {
		return nutrition.ParseQuantity(text)
	}
	for _, part := range strings.FieldsFunc(text, func(r rune) bool { return r == '/' || r == '|' || r == '(' || r == ')' }) {
		if strings.Contains(part, "kcal") {
			return nutrition.ParseQuantity(part)
		}
	}
	return 0, false
}

func setOnce(dst **float64, v *float64) {
	if *dst == nil {
		*dst = v
	}
}

func (c *Clipper) extractWithLLM(ctx context.Context, url, title, text string) (*ExtractedFood, error) {
	var buf bytes.Buffer
	if err := extractorTmpl.Execute(&buf, struct{ URL, Title, Text string }{url, title, text}); err != nil {
		return nil, fmt.Errorf("failed to build extractor prompt: %w", err)
	}

	start := time.Now()
	resp, err := c.textGen.GenerateContent(ctx, buf.String())
	c.record(shared.CallMeta{Name: "Clipper", Usage: resp.Usage, Latency: time.Since(start), Err: err})
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}

	var food ExtractedFood
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Content)), &food); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, resp.Content)
	}
	food.ServingSize = nutrition.NormalizeServingSize(food.ServingSize)
	return &food, nil
}

func (c *Clipper) record(meta shared.CallMeta) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordCall(meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", meta.Name, err)
	}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
