package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"elior-fitness/internal/nutrition"
)

// MealBankItem is a reusable food record kept by the backend.
type MealBankItem struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	NameHebrew  string              `json:"name_hebrew"`
	MacroType   nutrition.MacroType `json:"macro_type"`
	Calories    *float64            `json:"calories"`
	Protein     *float64            `json:"protein"`
	Carbs       *float64            `json:"carbs"`
	Fat         *float64            `json:"fat"`
	ServingSize string              `json:"serving_size"`
}

// UnmarshalJSON accepts serving_size as either a string or a number.
func (m *MealBankItem) UnmarshalJSON(data []byte) error {
	type alias MealBankItem
	aux := struct {
		*alias
		ServingSize json.RawMessage `json:"serving_size"`
	}{alias: (*alias)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m.ServingSize = rawText(aux.ServingSize)
	return nil
}

// ToFoodOption converts the bank item into an option for a meal category.
func (m MealBankItem) ToFoodOption() nutrition.FoodOption {
	return nutrition.FoodOption{
		Name:        m.Name,
		NameHebrew:  m.NameHebrew,
		Calories:    m.Calories,
		Protein:     m.Protein,
		Carbs:       m.Carbs,
		Fat:         m.Fat,
		ServingSize: nutrition.NormalizeServingSize(m.ServingSize),
	}.Clone()
}

// NewMealBankItem is the payload for creating a bank item.
type NewMealBankItem struct {
	Name        string              `json:"name"`
	NameHebrew  string              `json:"name_hebrew,omitempty"`
	MacroType   nutrition.MacroType `json:"macro_type"`
	Calories    *float64            `json:"calories"`
	Protein     *float64            `json:"protein"`
	Carbs       *float64            `json:"carbs"`
	Fat         *float64            `json:"fat"`
	ServingSize string              `json:"serving_size,omitempty"`
	IsPublic    bool                `json:"is_public"`
}

// SubmittedPlan is the backend's answer to a plan submission. Raw keeps the
// full resource for callers that need fields not modelled here.
type SubmittedPlan struct {
	ID       int64           `json:"id"`
	ClientID int64           `json:"client_id"`
	Name     string          `json:"name"`
	Raw      json.RawMessage `json:"-"`
}

// ErrTokenExpired is returned before any request is sent when the configured
// bearer token carries an exp claim in the past.
var ErrTokenExpired = errors.New("api token expired")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Detail)
}

// parseDetail reads the {"detail": ...} body. Detail may be a string or a
// list of validation errors; lists are flattened to their messages.
func parseDetail(body []byte) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		return s
	}

	var list []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(env.Detail, &list); err == nil && len(list) > 0 {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			if len(item.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", item.Loc[len(item.Loc)-1], item.Msg))
			} else {
				msgs = append(msgs, item.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(env.Detail)
}

func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
