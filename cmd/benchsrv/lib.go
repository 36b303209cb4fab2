package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-yaml/yaml"

	"github.com/yorkuphyslab/labbench/generichttp"
	"github.com/yorkuphyslab/labbench/gwinstek"
	"github.com/yorkuphyslab/labbench/hvctl"
	"github.com/yorkuphyslab/labbench/ohaus"
	"github.com/yorkuphyslab/labbench/server/middleware/locker"
	"github.com/yorkuphyslab/labbench/tektronix"
	"github.com/yorkuphyslab/labbench/usbtmc"
)

// ObjSetup holds the typical args for a New<device> call.
// Serial is not always used, and need not be populated in the config file
// if not used.
type ObjSetup struct {
	// Addr holds the network or filesystem address of the remote device,
	// e.g. 192.168.100.123:4000 for a device on a terminal server,
	// or /dev/ttyUSB0 for an RS232 device on a serial cable
	Addr string `yaml:"Addr"`

	// Endpoint is the stem the routes from this device will be served on
	// ex. Endpoint="/bench/scope" will produce routes of /bench/scope/waveform, etc.
	Endpoint string `yaml:"Endpoint"`

	// Serial determines if the connection is serial/RS232 (True) or TCP (False)
	Serial bool `yaml:"Serial"`

	// USB selects the USB test and measurement class instead of Addr
	USB bool `yaml:"USB"`

	// Type is the "type" of the object, e.g. tbs1000
	Type string `yaml:"Type"`

	// Args holds any arguments to pass into the constructor for the object
	Args map[string]interface{} `yaml:"Args"`
}

// Config is a struct that holds the initialization parameters for various
// HTTP adapted devices.  It is to be populated by a yaml/unmarshal call.
type Config struct {
	// Addr is the address to listen at
	Addr string `yaml:"Addr"`

	// Nodes is the list of nodes to set up
	Nodes []ObjSetup `yaml:"Nodes"`
}

// LoadYaml converts a (path to a) yaml file into a Config struct
func LoadYaml(path string) (Config, error) {
	cfg := Config{}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	err = yaml.NewDecoder(f).Decode(&cfg)
	return cfg, err
}

// argInt digs an integer out of a node's Args with a fallback
func argInt(args map[string]interface{}, key string, fallback int) int {
	if args == nil {
		return fallback
	}
	if v, ok := args[key]; ok {
		if i, ok := v.(int); ok {
			return i
		}
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return fallback
}

// BuildMux uses the config to construct a chi router with populated
// handlers.  The mux serves a special route, endpoints, which returns a
// map of stems to their routes as JSON.
func BuildMux(c Config) chi.Router {
	root := chi.NewRouter()
	root.Use(middleware.Logger)
	supergraph := map[string][]string{}

	for _, node := range c.Nodes {
		var httper generichttp.HTTPer
		typ := strings.ToLower(node.Type)
		switch typ {
		case "tbs1000", "scope", "tektronix":
			var scope *tektronix.TBS1000
			if node.USB {
				pid := argInt(node.Args, "PID", 0x03a6)
				scope = tektronix.NewTBS1000USB(usbtmc.TektronixVID, uint16(pid))
			} else {
				scope = tektronix.NewTBS1000(node.Addr, node.Serial)
			}
			if err := scope.Connect(); err != nil {
				log.Fatal("tbs1000 at ", node.Addr, ": ", err)
			}
			httper = tektronix.NewHTTPWrapper(scope)

		case "scoutstx", "scale", "ohaus":
			scale := ohaus.NewScoutSTX(node.Addr)
			httper = ohaus.NewHTTPWrapper(scale)

		case "gpd3303d", "psu", "gwinstek":
			psu := gwinstek.NewGPD3303D(node.Addr)
			httper = gwinstek.NewHTTPWrapper(psu)

		case "hv", "hvctl":
			psu := gwinstek.NewGPD3303D(node.Addr)
			channel := argInt(node.Args, "Channel", 1)
			hv := hvctl.New(psu, channel)
			httper = hvctl.NewHTTPWrapper(hv)

		default:
			log.Fatal("type ", typ, " not understood")
		}

		// prepare the URL, "bench/scope" => "/bench/scope/*"
		hndlS := generichttp.SubMuxSanitize(node.Endpoint)

		// add the endpoints to the graph
		supergraph[hndlS] = httper.RT().Endpoints()

		// add a lock interface for this node
		lock := locker.New()
		locker.Inject(httper, lock)

		// bind to the mux
		r := chi.NewRouter()
		r.Use(lock.Check)
		httper.RT().Bind(r)
		root.Mount(hndlS, r)
	}
	root.Get("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		err := json.NewEncoder(w).Encode(supergraph)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return root
}
