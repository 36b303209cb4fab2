package gwinstek

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/yorkuphyslab/labbench/generichttp"
)

// HTTPWrapper provides HTTP bindings on top of the underlying Go interface
// BindRoutes must be called on it
type HTTPWrapper struct {
	// PSU is the underlying supply that is wrapped
	*GPD3303D

	// RouteTable maps method-path pairs to handlers
	RouteTable generichttp.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured
func NewHTTPWrapper(psu *GPD3303D) HTTPWrapper {
	w := HTTPWrapper{GPD3303D: psu}
	rt := generichttp.RouteTable{
		generichttp.MethodPath{Method: http.MethodGet, Path: "/idn"}:                generichttp.GetString(psu.IDN),
		generichttp.MethodPath{Method: http.MethodGet, Path: "/voltage/{channel}"}:  w.GetVoltage,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/voltage/{channel}"}: w.SetVoltage,
		generichttp.MethodPath{Method: http.MethodGet, Path: "/current/{channel}"}:  w.GetCurrent,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/current/{channel}"}: w.SetCurrent,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/output"}:            w.SetOutput,
	}
	w.RouteTable = rt
	return w
}

// RT satisfies generichttp.HTTPer
func (h HTTPWrapper) RT() generichttp.RouteTable {
	return h.RouteTable
}

func channelFromURL(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "channel"))
}

// GetVoltage measures the output voltage of the channel in the URL
func (h HTTPWrapper) GetVoltage(w http.ResponseWriter, r *http.Request) {
	channel, err := channelFromURL(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	generichttp.GetFloat(func() (float64, error) {
		return h.GPD3303D.MeasureVoltage(channel)
	})(w, r)
}

// SetVoltage programs the voltage setpoint of the channel in the URL
func (h HTTPWrapper) SetVoltage(w http.ResponseWriter, r *http.Request) {
	channel, err := channelFromURL(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	generichttp.SetFloat(func(v float64) error {
		return h.GPD3303D.SetVoltage(channel, v)
	})(w, r)
}

// GetCurrent measures the output current of the channel in the URL
func (h HTTPWrapper) GetCurrent(w http.ResponseWriter, r *http.Request) {
	channel, err := channelFromURL(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	generichttp.GetFloat(func() (float64, error) {
		return h.GPD3303D.MeasureCurrent(channel)
	})(w, r)
}

// SetCurrent programs the current limit of the channel in the URL
func (h HTTPWrapper) SetCurrent(w http.ResponseWriter, r *http.Request) {
	channel, err := channelFromURL(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	generichttp.SetFloat(func(v float64) error {
		return h.GPD3303D.SetCurrent(channel, v)
	})(w, r)
}

// SetOutput switches both supply outputs on or off from json {'bool': value}
func (h HTTPWrapper) SetOutput(w http.ResponseWriter, r *http.Request) {
	generichttp.SetBool(func(on bool) error {
		if on {
			return h.GPD3303D.EnableOutput()
		}
		return h.GPD3303D.DisableOutput()
	})(w, r)
}
