// Copyright © 2025 Rive
// Use is governed by a BSD-style license found in the LICENSE file.

package rive

// viewmodel.go holds the view-model data model shared by the queue
// (as command payloads) and the server (as reply payloads): DataType,
// PropertyData, ViewModelEnum, and the ViewModelInstanceData tagged
// union (spec.md §4.5).

// DataType identifies the active arm of a view-model property value.
type DataType uint8

const (
	DataTypeNone DataType = iota
	DataTypeBool
	DataTypeNumber
	DataTypeColor
	DataTypeString
	DataTypeEnum
	DataTypeTrigger
	DataTypeViewModel
	DataTypeImage
	DataTypeArtboard
	DataTypeList
)

func (t DataType) String() string {
	switch t {
	case DataTypeBool:
		return "bool"
	case DataTypeNumber:
		return "number"
	case DataTypeColor:
		return "color"
	case DataTypeString:
		return "string"
	case DataTypeEnum:
		return "enum"
	case DataTypeTrigger:
		return "trigger"
	case DataTypeViewModel:
		return "viewModel"
	case DataTypeImage:
		return "image"
	case DataTypeArtboard:
		return "artboard"
	case DataTypeList:
		return "list"
	default:
		return "none"
	}
}

// PropertyData names and types one property of a view model.
type PropertyData struct {
	Type DataType
	Name string
}

// ViewModelEnum is one enum type defined by a file, with its ordered
// set of labels.
type ViewModelEnum struct {
	Name   string
	Values []string
}

// ViewModelInstanceData is a tagged union carrying exactly one active
// value alongside its PropertyData metadata. Equality is field-wise
// over the active arm only (spec.md §4.5).
type ViewModelInstanceData struct {
	Property PropertyData

	Bool   bool
	Number float32
	Color  uint32 // 32-bit ARGB
	String string // also used for the Enum arm's label
	// Image, ViewModel, Trigger, and List arms carry no payload beyond
	// the DataType discriminant itself.
}

// Equal compares two ViewModelInstanceData values field-wise over
// whichever arm Property.Type selects. Two values with different
// Property.Type or Property.Name are never equal.
func (d ViewModelInstanceData) Equal(o ViewModelInstanceData) bool {
	if d.Property != o.Property {
		return false
	}
	switch d.Property.Type {
	case DataTypeBool:
		return d.Bool == o.Bool
	case DataTypeNumber:
		return d.Number == o.Number
	case DataTypeColor:
		return d.Color == o.Color
	case DataTypeString, DataTypeEnum:
		return d.String == o.String
	default:
		// ViewModel, Trigger, Image, Artboard, List, None carry no
		// payload distinguishable at this layer.
		return true
	}
}
