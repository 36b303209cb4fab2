package hvctl

import (
	"net/http"

	"github.com/yorkuphyslab/labbench/generichttp"
)

// HTTPWrapper provides HTTP bindings on top of the underlying Go interface
// BindRoutes must be called on it
type HTTPWrapper struct {
	*HVControl

	// RouteTable maps method-path pairs to handlers
	RouteTable generichttp.RouteTable
}

// NewHTTPWrapper returns a new HTTP wrapper with the route table pre-configured
func NewHTTPWrapper(hv *HVControl) HTTPWrapper {
	w := HTTPWrapper{HVControl: hv}
	rt := generichttp.RouteTable{
		generichttp.MethodPath{Method: http.MethodGet, Path: "/kv"}:      generichttp.GetFloat(hv.GetKV),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/kv"}:     generichttp.SetFloat(hv.SetKV),
		generichttp.MethodPath{Method: http.MethodPost, Path: "/output"}: w.SetOutput,
	}
	w.RouteTable = rt
	return w
}

// RT satisfies generichttp.HTTPer
func (h HTTPWrapper) RT() generichttp.RouteTable {
	return h.RouteTable
}

// SetOutput switches the module's supply on or off from json {'bool': value}
func (h HTTPWrapper) SetOutput(w http.ResponseWriter, r *http.Request) {
	generichttp.SetBool(func(on bool) error {
		if on {
			return h.HVControl.SwitchOn()
		}
		return h.HVControl.SwitchOff()
	})(w, r)
}
