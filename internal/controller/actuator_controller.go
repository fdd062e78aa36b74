package controller

import (
	"net/http"

	"github.com/chnu/award-monitoring-system/pkg/observability/implementation"
	"github.com/prometheus/client_golang/prometheus"
)

// ActuatorController serves the administrative endpoints under prefix.
type ActuatorController struct {
	prefix   string
	gatherer prometheus.Gatherer
}

func NewActuatorController(prefix string, gatherer prometheus.Gatherer) *ActuatorController {
	return &ActuatorController{prefix: prefix, gatherer: gatherer}
}

func (ctrl *ActuatorController) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+ctrl.prefix+"/health", ctrl.Health)
	mux.Handle("GET "+ctrl.prefix+"/prometheus", implementation.MetricsHandler(ctrl.gatherer))
}

func (ctrl *ActuatorController) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}
