package filter

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Kauxtubh/pinecone/storage"
)

// Parse converts the JSON wire form of a filter into an expression tree.
//
// The wire form is an object. Keys starting with "$" are combinators taking
// an array of sub-filters; any other key names a metadata field. A field
// maps either to a bare scalar, shorthand for {"$eq": scalar}, or to an
// object of comparison operators:
//
//	{"genre": "drama"}
//	{"year": {"$gte": 1990, "$lt": 2000}}
//	{"$or": [{"genre": "drama"}, {"rating": {"$gt": 8}}]}
//
// Multiple keys in one object combine with an implicit $and. Parse checks
// shape only; Compile enforces the operator and type rules.
func Parse(data []byte) (Expr, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: filter must be a JSON object, got %s", ErrInvalidFilter, jsonTypeName(raw))
	}
	return parseObject(obj)
}

func parseObject(obj map[string]any) (Expr, error) {
	if len(obj) == 0 {
		return nil, fmt.Errorf("%w: empty filter object", ErrInvalidFilter)
	}

	// Map iteration order is random; sort so the tree shape is stable.
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	exprs := make([]Expr, 0, len(obj))
	for _, key := range keys {
		val := obj[key]
		switch {
		case key == "$and" || key == "$or":
			children, err := parseChildren(key, val)
			if err != nil {
				return nil, err
			}
			if key == "$and" {
				exprs = append(exprs, &And{Children: children})
			} else {
				exprs = append(exprs, &Or{Children: children})
			}
		case strings.HasPrefix(key, "$"):
			return nil, fmt.Errorf("%w: unknown combinator %q", ErrInvalidFilter, key)
		default:
			e, err := parseField(key, val)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
		}
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &And{Children: exprs}, nil
}

func parseChildren(op string, val any) ([]Expr, error) {
	arr, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s expects an array of sub-filters, got %s", ErrInvalidFilter, op, jsonTypeName(val))
	}
	children := make([]Expr, 0, len(arr))
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s children must be objects, got %s", ErrInvalidFilter, op, jsonTypeName(item))
		}
		child, err := parseObject(obj)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

func parseField(field string, val any) (Expr, error) {
	switch v := val.(type) {
	case map[string]any:
		return parseOperators(field, v)
	case []any:
		return nil, fmt.Errorf("%w: field %q: arrays are only valid under $in and $nin", ErrInvalidFilter, field)
	default:
		value, err := scalarValue(val)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidFilter, field, err)
		}
		return &Leaf{Field: field, Op: OpEq, Value: value}, nil
	}
}

func parseOperators(field string, obj map[string]any) (Expr, error) {
	if len(obj) == 0 {
		return nil, fmt.Errorf("%w: field %q: empty operator object", ErrInvalidFilter, field)
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	leaves := make([]Expr, 0, len(obj))
	for _, key := range keys {
		op := Op(key)
		val := obj[key]
		switch op {
		case OpIn, OpNin:
			arr, ok := val.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s on %q expects an array, got %s", ErrInvalidFilter, op, field, jsonTypeName(val))
			}
			values := make([]storage.Value, 0, len(arr))
			for _, item := range arr {
				value, err := scalarValue(item)
				if err != nil {
					return nil, fmt.Errorf("%w: %s on %q: %v", ErrInvalidFilter, op, field, err)
				}
				values = append(values, value)
			}
			leaves = append(leaves, &Leaf{Field: field, Op: op, Values: values})
		case OpEq, OpNe, OpGt, OpGte, OpLt, OpLte:
			value, err := scalarValue(val)
			if err != nil {
				return nil, fmt.Errorf("%w: %s on %q: %v", ErrInvalidFilter, op, field, err)
			}
			leaves = append(leaves, &Leaf{Field: field, Op: op, Value: value})
		default:
			return nil, fmt.Errorf("%w: unknown operator %q on field %q", ErrInvalidFilter, key, field)
		}
	}
	if len(leaves) == 1 {
		return leaves[0], nil
	}
	return &And{Children: leaves}, nil
}

func scalarValue(v any) (storage.Value, error) {
	switch t := v.(type) {
	case string:
		return storage.StringValue(t), nil
	case float64:
		return storage.NumberValue(t), nil
	case bool:
		return storage.BoolValue(t), nil
	default:
		return storage.Value{}, fmt.Errorf("values must be string, number, or boolean, got %s", jsonTypeName(v))
	}
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
