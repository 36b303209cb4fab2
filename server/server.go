// Package server contains misc server utilities.
package server

import (
	"encoding/json"
	"fmt"
	"go/types"
	"log"
	"net/http"
)

// HumanPayload is a struct containing the basic types and their human-serializable values
type HumanPayload struct {
	// Bool holds a binary value
	Bool bool

	// Int holds an integer value
	Int int

	// Float holds a floating point value
	Float float64

	// String holds a string value
	String string

	// T holds the type of the value actually contained
	T types.BasicKind
}

// EncodeAndRespond converts the payload to JSON and writes it to w
func (hp *HumanPayload) EncodeAndRespond(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	var err error
	switch hp.T {
	case types.Bool:
		obj := BoolT{Bool: hp.Bool}
		err = json.NewEncoder(w).Encode(obj)
	case types.Int:
		obj := IntT{Int: hp.Int}
		err = json.NewEncoder(w).Encode(obj)
	case types.Float64:
		obj := FloatT{F64: hp.Float}
		err = json.NewEncoder(w).Encode(obj)
	case types.String:
		obj := StrT{Str: hp.String}
		err = json.NewEncoder(w).Encode(obj)
	default:
		err = fmt.Errorf("payload type %v not encodable", hp.T)
	}
	if err != nil {
		fstr := fmt.Sprintf("error encoding data to json %q", err)
		log.Println(fstr)
		http.Error(w, fstr, http.StatusInternalServerError)
	}
}

// FloatT is a struct with a single field, F64, used for json {'f64': value}
type FloatT struct {
	F64 float64 `json:"f64"`
}

// IntT is a struct with a single field, Int, used for json {'int': value}
type IntT struct {
	Int int `json:"int"`
}

// StrT is a struct with a single field, Str, used for json {'str': value}
type StrT struct {
	Str string `json:"str"`
}

// BoolT is a struct with a single field, Bool, used for json {'bool': value}
type BoolT struct {
	Bool bool `json:"bool"`
}
