package nutrition

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MacroType is the macronutrient group a category of food options belongs to.
type MacroType string

const (
	Protein MacroType = "protein"
	Carb    MacroType = "carb"
	Fat     MacroType = "fat"
)

// MacroTypes returns the three macro types in the order a meal slot holds them.
func MacroTypes() []MacroType {
	return []MacroType{Protein, Carb, Fat}
}

// Valid reports whether m is one of the three known macro types.
func (m MacroType) Valid() bool {
	switch m {
	case Protein, Carb, Fat:
		return true
	}
	return false
}

// ParseMacroType accepts only the canonical lowercase names.
func ParseMacroType(s string) (MacroType, error) {
	m := MacroType(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown macro type %q", s)
	}
	return m, nil
}

// NormalizeMacroType maps the loosely shaped values the backend and trainers
// send ("PROTEIN", "Carbs", "MacroType.FAT", "carbohydrate") onto the enum.
func NormalizeMacroType(s string) (MacroType, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	if i := strings.LastIndex(v, "."); i >= 0 {
		v = v[i+1:]
	}
	switch {
	case v == "":
		return "", false
	case strings.HasPrefix(v, "prot"):
		return Protein, true
	case strings.HasPrefix(v, "carb"):
		return Carb, true
	case strings.HasPrefix(v, "fat"):
		return Fat, true
	}
	return "", false
}

// UnmarshalJSON accepts a plain string or an enum-like object carrying
// "value" or "name".
func (m *MacroType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		var obj struct {
			Value string `json:"value"`
			Name  string `json:"name"`
		}
		if objErr := json.Unmarshal(data, &obj); objErr != nil {
			return fmt.Errorf("macro type must be a string or object: %w", err)
		}
		raw = obj.Value
		if raw == "" {
			raw = obj.Name
		}
	}

	parsed, ok := NormalizeMacroType(raw)
	if !ok {
		return fmt.Errorf("unknown macro type %q", raw)
	}
	*m = parsed
	return nil
}
