package ohaus

import (
	"encoding/json"
	"net/http"

	"github.com/yorkuphyslab/labbench/generichttp"
)

// HTTPWrapper provides HTTP bindings on top of the underlying Go interface
// BindRoutes must be called on it
type HTTPWrapper struct {
	// Scale is the underlying balance that is wrapped
	*ScoutSTX

	// RouteTable maps method-path pairs to handlers
	RouteTable generichttp.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured
func NewHTTPWrapper(scale *ScoutSTX) HTTPWrapper {
	w := HTTPWrapper{ScoutSTX: scale}
	rt := generichttp.RouteTable{
		generichttp.MethodPath{Method: http.MethodGet, Path: "/weight"}: w.Weight,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/zero"}:  w.Zero,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/tare"}:  w.Tare,
	}
	w.RouteTable = rt
	return w
}

// RT satisfies generichttp.HTTPer
func (h HTTPWrapper) RT() generichttp.RouteTable {
	return h.RouteTable
}

// Weight reads the balance and sends the weighing back as JSON
func (h HTTPWrapper) Weight(w http.ResponseWriter, r *http.Request) {
	weighing, err := h.ScoutSTX.ReadWeightTime()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err = json.NewEncoder(w).Encode(weighing)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Zero zeroes the balance
func (h HTTPWrapper) Zero(w http.ResponseWriter, r *http.Request) {
	err := h.ScoutSTX.Zero()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Tare tares the balance
func (h HTTPWrapper) Tare(w http.ResponseWriter, r *http.Request) {
	err := h.ScoutSTX.Tare()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
