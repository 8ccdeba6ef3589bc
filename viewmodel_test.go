// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

import (
	"testing"

	"github.com/go-test/deep"
)

func TestViewModelInstanceDataEqualSameArm(t *testing.T) {
	a := ViewModelInstanceData{Property: PropertyData{Type: DataTypeNumber, Name: "Test Num"}, Number: 10}
	b := ViewModelInstanceData{Property: PropertyData{Type: DataTypeNumber, Name: "Test Num"}, Number: 10}
	if !a.Equal(b) {
		t.Fatalf("expected equal, got diff: %v", deep.Equal(a, b))
	}
}

func TestViewModelInstanceDataEqualIgnoresInactiveArms(t *testing.T) {
	a := ViewModelInstanceData{Property: PropertyData{Type: DataTypeBool, Name: "isDown"}, Bool: true, Number: 99}
	b := ViewModelInstanceData{Property: PropertyData{Type: DataTypeBool, Name: "isDown"}, Bool: true, Number: -5}
	if !a.Equal(b) {
		t.Fatalf("expected equal (Number is not the active arm): %v", deep.Equal(a, b))
	}
}

func TestViewModelInstanceDataNotEqualDifferentValue(t *testing.T) {
	a := ViewModelInstanceData{Property: PropertyData{Type: DataTypeString, Name: "Label"}, String: "one"}
	b := ViewModelInstanceData{Property: PropertyData{Type: DataTypeString, Name: "Label"}, String: "two"}
	if a.Equal(b) {
		t.Fatalf("expected not equal")
	}
	if d := deep.Equal(a, b); d == nil {
		t.Fatalf("expected deep.Equal to report a difference")
	}
}

func TestViewModelInstanceDataNotEqualDifferentType(t *testing.T) {
	a := ViewModelInstanceData{Property: PropertyData{Type: DataTypeNumber, Name: "X"}, Number: 1}
	b := ViewModelInstanceData{Property: PropertyData{Type: DataTypeString, Name: "X"}, String: "1"}
	if a.Equal(b) {
		t.Fatalf("values with different Property.Type must never be equal")
	}
}

func TestDataTypeString(t *testing.T) {
	cases := map[DataType]string{
		DataTypeBool:      "bool",
		DataTypeNumber:    "number",
		DataTypeColor:     "color",
		DataTypeString:    "string",
		DataTypeEnum:      "enum",
		DataTypeTrigger:   "trigger",
		DataTypeViewModel: "viewModel",
		DataTypeImage:     "image",
		DataTypeArtboard:  "artboard",
		DataTypeList:      "list",
		DataTypeNone:      "none",
	}
	for dt, want := range cases {
		if got := dt.String(); got != want {
			t.Errorf("DataType(%d).String() = %q, want %q", dt, got, want)
		}
	}
}
