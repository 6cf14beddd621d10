package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"elior-fitness/internal/config"
	"elior-fitness/internal/nutrition"
	"elior-fitness/internal/shared"

	"github.com/google/uuid"
)

const (
	planCompletePath = "/v2/meals/plans/complete"
	mealBankPath     = "/v2/meals/meal-bank"
)

type requestIDKey struct{}

// WithRequestID returns a context whose backend requests carry id as
// X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the ID stored by WithRequestID, or "" if there is none.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Client is an interface for the fitness backend REST API.
type Client interface {
	SubmitPlan(ctx context.Context, plan nutrition.MealPlan) (*SubmittedPlan, error)
	ListMealBank(ctx context.Context, macro nutrition.MacroType) ([]MealBankItem, error)
	CreateMealBankItem(ctx context.Context, item NewMealBankItem) (*MealBankItem, error)
	WithToken(token string) Client
}

// apiClient is the concrete implementation of the backend API client.
type apiClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	recorder   shared.CallRecorder
}

// NewClient creates a new backend API client. recorder may be nil.
func NewClient(cfg *config.Config, recorder shared.CallRecorder) Client {
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &apiClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.APIURL,
		token:      cfg.APIToken,
		recorder:   recorder,
	}
}

// WithToken returns a client that authenticates as a different caller.
func (c *apiClient) WithToken(token string) Client {
	cp := *c
	cp.token = token
	return &cp
}

// SubmitPlan sends the whole plan graph in one request. It is not retried.
func (c *apiClient) SubmitPlan(ctx context.Context, plan nutrition.MealPlan) (*SubmittedPlan, error) {
	body, err := c.do(ctx, "SubmitPlan", http.MethodPost, planCompletePath, nil, plan)
	if err != nil {
		return nil, err
	}

	var submitted SubmittedPlan
	if err := json.Unmarshal(body, &submitted); err != nil {
		return nil, fmt.Errorf("failed to decode submitted plan: %w", err)
	}
	submitted.Raw = body
	return &submitted, nil
}

// ListMealBank lists public and own bank items of one macro type. Items the
// backend returns with an unrecognizable shape are skipped.
func (c *apiClient) ListMealBank(ctx context.Context, macro nutrition.MacroType) ([]MealBankItem, error) {
	q := url.Values{}
	q.Set("include_public", "true")
	if macro != "" {
		q.Set("macro_type", string(macro))
	}

	body, err := c.do(ctx, "ListMealBank", http.MethodGet, mealBankPath, q, nil)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode meal bank: %w", err)
	}

	items := make([]MealBankItem, 0, len(raw))
	for _, r := range raw {
		var item MealBankItem
		if err := json.Unmarshal(r, &item); err != nil {
			log.Printf("Warning: skipping meal bank item: %v", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// CreateMealBankItem adds a reusable food to the bank.
func (c *apiClient) CreateMealBankItem(ctx context.Context, item NewMealBankItem) (*MealBankItem, error) {
	if !item.MacroType.Valid() {
		return nil, fmt.Errorf("invalid macro type %q", item.MacroType)
	}
	item.ServingSize = nutrition.NormalizeServingSize(item.ServingSize)

	body, err := c.do(ctx, "CreateMealBankItem", http.MethodPost, mealBankPath, nil, item)
	if err != nil {
		return nil, err
	}

	var created MealBankItem
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to decode meal bank item: %w", err)
	}
	return &created, nil
}

func (c *apiClient) do(ctx context.Context, name, method, path string, query url.Values, payload any) ([]byte, error) {
	if tokenExpired(c.token, time.Now()) {
		return nil, ErrTokenExpired
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	requestID := RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	meta := shared.CallMeta{Name: name, Target: method + " " + path}
	defer func() {
		meta.Latency = time.Since(start)
		c.record(meta)
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		meta.Err = err
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	meta.StatusCode = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		meta.Err = err
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Detail: parseDetail(body)}
		meta.Err = apiErr
		return nil, apiErr
	}
	return body, nil
}

func (c *apiClient) record(meta shared.CallMeta) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordCall(meta); err != nil {
		log.Printf("Warning: failed to record metrics for %s: %v", meta.Name, err)
	}
}
