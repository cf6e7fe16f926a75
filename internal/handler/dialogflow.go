package handler

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iliyamo/food-order-webhook/internal/service"
)

// WebhookRequest is the subset of a Dialogflow ES fulfillment request the
// webhook reads.
type WebhookRequest struct {
	Session     string      `json:"session"`
	QueryResult QueryResult `json:"queryResult"`
}

// QueryResult carries the matched intent and its parameters.
type QueryResult struct {
	QueryText  string     `json:"queryText"`
	Intent     Intent     `json:"intent"`
	Parameters Parameters `json:"parameters"`
}

// Intent identifies the matched intent by its display name.
type Intent struct {
	DisplayName string `json:"displayName"`
}

// WebhookResponse is the only response shape the webhook ever sends.
type WebhookResponse struct {
	FulfillmentText string `json:"fulfillmentText"`
}

// Parameters holds raw intent parameters.  The agent sends a parameter as a
// scalar or a list depending on how many values the user said, so values are
// decoded on demand.
type Parameters map[string]json.RawMessage

const (
	paramFoodItem = "food-item"
	paramNumber   = "number"
)

// FoodItems returns the food-item parameter as a list.  A missing, null or
// empty parameter yields nil.
func (p Parameters) FoodItems() ([]string, error) {
	v, err := p.decode(paramFoodItem)
	if err != nil || v == nil {
		return nil, err
	}
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, nil
		}
		return []string{t}, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("%w: food-item must be text", service.ErrValidation)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: food-item must be text", service.ErrValidation)
}

// Numbers returns the number parameter as whole numbers.  Numbers may
// arrive as JSON numbers (often with a fractional part of zero), lists of
// them, or numeric strings.  Anything that is not a whole number fails with
// service.ErrBadQuantity.
func (p Parameters) Numbers() ([]int, error) {
	v, err := p.decode(paramNumber)
	if err != nil || v == nil {
		return nil, err
	}
	if list, ok := v.([]any); ok {
		out := make([]int, 0, len(list))
		for _, e := range list {
			n, err := wholeNumber(e)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	n, err := wholeNumber(v)
	if err != nil {
		return nil, err
	}
	return []int{n}, nil
}

func (p Parameters) decode(name string) (any, error) {
	raw, ok := p[name]
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", service.ErrValidation, name, err)
	}
	return v, nil
}

func wholeNumber(v any) (int, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, service.ErrBadQuantity
		}
		f = parsed
	default:
		return 0, service.ErrBadQuantity
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, service.ErrBadQuantity
	}
	return int(f), nil
}
