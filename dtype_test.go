package skiff

import (
	"errors"
	"testing"
)

func TestDTypeStringRoundTrip(t *testing.T) {
	for d := Float64; d <= Null; d++ {
		got, err := ParseDType(d.String())
		if err != nil {
			t.Fatalf("ParseDType(%q): %v", d.String(), err)
		}
		if got != d {
			t.Errorf("ParseDType(%q) = %v, want %v", d.String(), got, d)
		}
	}

	if d, err := ParseDType("int64"); err != nil || d != Int64 {
		t.Errorf("ParseDType is case-insensitive: got %v, %v", d, err)
	}
	if _, err := ParseDType("decimal"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unknown dtype: err = %v", err)
	}
	if s := DType(200).String(); s != "Unknown(200)" {
		t.Errorf("DType(200).String() = %q", s)
	}
}

func TestDTypePredicates(t *testing.T) {
	tests := []struct {
		d                     DType
		numeric, float, intgr bool
		summable, categorical bool
	}{
		{Float64, true, true, false, true, false},
		{Float32, true, true, false, true, false},
		{Int64, true, false, true, true, false},
		{Int8, true, false, true, true, false},
		{Bool, false, false, false, true, false},
		{String, false, false, false, false, false},
		{DateTime, false, false, false, false, false},
		{Categorical, false, false, false, false, true},
	}
	for _, tt := range tests {
		if tt.d.IsNumeric() != tt.numeric {
			t.Errorf("%v.IsNumeric() = %v", tt.d, !tt.numeric)
		}
		if tt.d.IsFloat() != tt.float {
			t.Errorf("%v.IsFloat() = %v", tt.d, !tt.float)
		}
		if tt.d.IsInteger() != tt.intgr {
			t.Errorf("%v.IsInteger() = %v", tt.d, !tt.intgr)
		}
		if tt.d.summable() != tt.summable {
			t.Errorf("%v.summable() = %v", tt.d, !tt.summable)
		}
		if tt.d.IsCategorical() != tt.categorical {
			t.Errorf("%v.IsCategorical() = %v", tt.d, !tt.categorical)
		}
	}
	if !DateTime.IsTemporal() || Int64.IsTemporal() {
		t.Error("only DateTime is temporal")
	}
}

func TestDTypeSize(t *testing.T) {
	sizes := map[DType]int{Float64: 8, Int32: 4, Int16: 2, Bool: 1, String: -1, Null: 0}
	for d, want := range sizes {
		if got := d.Size(); got != want {
			t.Errorf("%v.Size() = %d, want %d", d, got, want)
		}
	}
}

func TestSchema(t *testing.T) {
	schema, err := NewSchema([]string{"a", "b"}, []DType{Int64, String})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	if schema.Len() != 2 {
		t.Errorf("Len = %d, want 2", schema.Len())
	}
	if d, ok := schema.GetDType("b"); !ok || d != String {
		t.Errorf("GetDType(b) = %v, %v", d, ok)
	}
	if _, ok := schema.GetDType("c"); ok {
		t.Error("GetDType(c) should not be found")
	}
	if i, ok := schema.GetIndex("b"); !ok || i != 1 {
		t.Errorf("GetIndex(b) = %d, %v", i, ok)
	}
	want := "Schema{\n  a: Int64\n  b: String\n}"
	if schema.String() != want {
		t.Errorf("String() = %q, want %q", schema.String(), want)
	}

	// Names returns a copy
	schema.Names()[0] = "z"
	if schema.Names()[0] != "a" {
		t.Error("Names() exposed internal slice")
	}

	if _, err := NewSchema([]string{"a"}, nil); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("length mismatch: err = %v", err)
	}
	if _, err := NewSchema([]string{"a", "a"}, []DType{Int64, Int64}); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("duplicate names: err = %v", err)
	}
}
