package tektronix

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"

	"github.com/yorkuphyslab/labbench/generichttp"
)

// HTTPWrapper provides HTTP bindings on top of the underlying Go interface
// BindRoutes must be called on it
type HTTPWrapper struct {
	// Scope is the underlying scope that is wrapped
	*TBS1000

	// RouteTable maps method-path pairs to handlers
	RouteTable generichttp.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured
func NewHTTPWrapper(scope *TBS1000) HTTPWrapper {
	w := HTTPWrapper{TBS1000: scope}
	rt := generichttp.RouteTable{
		generichttp.MethodPath{Method: http.MethodGet, Path: "/idn"}:                generichttp.GetString(scope.IDN),
		generichttp.MethodPath{Method: http.MethodGet, Path: "/connected"}:          w.GetConnected,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/connect"}:           w.Connect,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/configure"}:         w.Configure,
		generichttp.MethodPath{Method: http.MethodGet, Path: "/period/{channel}"}:   w.Period,
		generichttp.MethodPath{Method: http.MethodGet, Path: "/waveform/{channel}"}: w.Waveform,
		generichttp.MethodPath{Method: http.MethodPost, Path: "/lockin"}:            w.LockIn,
	}
	w.RouteTable = rt
	return w
}

// RT satisfies generichttp.HTTPer
func (h HTTPWrapper) RT() generichttp.RouteTable {
	return h.RouteTable
}

// GetConnected returns Connected() as JSON
func (h HTTPWrapper) GetConnected(w http.ResponseWriter, r *http.Request) {
	generichttp.GetBool(func() (bool, error) {
		return h.TBS1000.Connected(), nil
	})(w, r)
}

// Connect connects to the scope and verifies its identity
func (h HTTPWrapper) Connect(w http.ResponseWriter, r *http.Request) {
	err := h.TBS1000.Connect()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Configure applies an acquisition setup from the JSON request body
func (h HTTPWrapper) Configure(w http.ResponseWriter, r *http.Request) {
	cfg := DefaultConfig()
	err := json.NewDecoder(r.Body).Decode(&cfg)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	err = h.TBS1000.Configure(cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func channelFromURL(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "channel"))
}

// Period measures the waveform period on the channel in the URL and sends
// it back as JSON
func (h HTTPWrapper) Period(w http.ResponseWriter, r *http.Request) {
	channel, err := channelFromURL(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	generichttp.GetFloat(func() (float64, error) {
		return h.TBS1000.Period(channel)
	})(w, r)
}

// Waveform captures a scaled waveform on the channel in the URL and sends
// it back as JSON
func (h HTTPWrapper) Waveform(w http.ResponseWriter, r *http.Request) {
	channel, err := channelFromURL(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	wf, err := h.TBS1000.AcquireWaveform(channel)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err = json.NewEncoder(w).Encode(wf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type lockinRequest struct {
	PhaseDeg float64 `json:"phaseDeg"`
	SettleMS int     `json:"settleMS"`
}

// LockIn runs a two channel lock-in measurement described by the JSON
// request body and sends the result back as JSON
func (h HTTPWrapper) LockIn(w http.ResponseWriter, r *http.Request) {
	req := lockinRequest{}
	err := json.NewDecoder(r.Body).Decode(&req)
	defer r.Body.Close()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := h.TBS1000.LockIn(req.PhaseDeg, time.Duration(req.SettleMS)*time.Millisecond)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	err = json.NewEncoder(w).Encode(res)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
