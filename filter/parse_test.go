package filter

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Kauxtubh/pinecone/storage"
)

func TestParseLeafShorthand(t *testing.T) {
	expr, err := Parse([]byte(`{"genre": "drama"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := &Leaf{Field: "genre", Op: OpEq, Value: storage.StringValue("drama")}
	if !reflect.DeepEqual(expr, want) {
		t.Errorf("got %+v, want %+v", expr, want)
	}
}

func TestParseOperatorObject(t *testing.T) {
	expr, err := Parse([]byte(`{"year": {"$gte": 1990, "$lt": 2000}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	// Operator keys parse in sorted order.
	want := &And{Children: []Expr{
		&Leaf{Field: "year", Op: OpGte, Value: storage.NumberValue(1990)},
		&Leaf{Field: "year", Op: OpLt, Value: storage.NumberValue(2000)},
	}}
	if !reflect.DeepEqual(expr, want) {
		t.Errorf("got %+v, want %+v", expr, want)
	}
}

func TestParseCombinators(t *testing.T) {
	expr, err := Parse([]byte(`{"$or": [{"genre": "drama"}, {"rating": {"$gt": 8}}]}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := &Or{Children: []Expr{
		&Leaf{Field: "genre", Op: OpEq, Value: storage.StringValue("drama")},
		&Leaf{Field: "rating", Op: OpGt, Value: storage.NumberValue(8)},
	}}
	if !reflect.DeepEqual(expr, want) {
		t.Errorf("got %+v, want %+v", expr, want)
	}
}

func TestParseImplicitAnd(t *testing.T) {
	expr, err := Parse([]byte(`{"genre": "drama", "year": 1994}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	// Field keys parse in sorted order.
	want := &And{Children: []Expr{
		&Leaf{Field: "genre", Op: OpEq, Value: storage.StringValue("drama")},
		&Leaf{Field: "year", Op: OpEq, Value: storage.NumberValue(1994)},
	}}
	if !reflect.DeepEqual(expr, want) {
		t.Errorf("got %+v, want %+v", expr, want)
	}
}

func TestParseInList(t *testing.T) {
	expr, err := Parse([]byte(`{"genre": {"$in": ["drama", "comedy"]}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := &Leaf{Field: "genre", Op: OpIn, Values: []storage.Value{
		storage.StringValue("drama"),
		storage.StringValue("comedy"),
	}}
	if !reflect.DeepEqual(expr, want) {
		t.Errorf("got %+v, want %+v", expr, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"invalid json", `{"genre": `},
		{"top-level array", `[{"genre": "drama"}]`},
		{"top-level scalar", `"drama"`},
		{"empty object", `{}`},
		{"null value", `{"genre": null}`},
		{"bare array value", `{"genre": ["drama"]}`},
		{"unknown combinator", `{"$not": [{"genre": "drama"}]}`},
		{"unknown operator", `{"genre": {"$regex": "dr.*"}}`},
		{"combinator non-array", `{"$and": {"genre": "drama"}}`},
		{"combinator scalar child", `{"$and": ["drama"]}`},
		{"in non-array", `{"genre": {"$in": "drama"}}`},
		{"in nested array", `{"genre": {"$in": [["drama"]]}}`},
		{"empty operator object", `{"genre": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.in))
			if err == nil {
				t.Fatal("expected parse error, got nil")
			}
			if !errors.Is(err, ErrInvalidFilter) {
				t.Errorf("error %v does not wrap ErrInvalidFilter", err)
			}
		})
	}
}

func TestParseCompileEvaluate(t *testing.T) {
	expr, err := Parse([]byte(`{"$and": [{"score": {"$gt": 0.5}}, {"is_valid": {"$eq": true}}]}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	f, err := Compile(expr)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	match := storage.Metadata{
		"score":    storage.NumberValue(0.9),
		"is_valid": storage.BoolValue(true),
	}
	lowScore := storage.Metadata{
		"score":    storage.NumberValue(0.2),
		"is_valid": storage.BoolValue(true),
	}
	missing := storage.Metadata{
		"score": storage.NumberValue(0.9),
	}

	if !f.Matches(match) {
		t.Error("expected match")
	}
	if f.Matches(lowScore) {
		t.Error("low score should not match")
	}
	if f.Matches(missing) {
		t.Error("missing is_valid should not match")
	}
}

func TestParsedEmptyListsFailCompile(t *testing.T) {
	for _, in := range []string{
		`{"$and": []}`,
		`{"$or": []}`,
		`{"genre": {"$in": []}}`,
	} {
		expr, err := Parse([]byte(in))
		if err != nil {
			t.Fatalf("Parse(%s) failed: %v", in, err)
		}
		if _, err := Compile(expr); !errors.Is(err, ErrInvalidFilter) {
			t.Errorf("Compile(%s) error = %v, want ErrInvalidFilter", in, err)
		}
	}
}
