package engine

import (
	"net/http"

	"github.com/cohdi/cdimock/pkg/fixture"
)

// API path prefixes.
const (
	clusterManagerV3 = "/cluster_manager/cluster_autoscaler/v3/tenants/{t}/clusters/{c}"
	clusterManagerV2 = "/cluster_manager/cluster_autoscaler/v2/tenants/{t}/clusters/{c}"
	fabricManager    = "/fabric_manager/api/v1"
	idManager        = "/id_manager/realms/{realm}/protocol/openid-connect"
)

// successBody acknowledges stub actions that have no observable effect.
var successBody = []byte(`{"status":"success"}`)

// Route binds a method and path template to a handler.
type Route struct {
	// Name identifies the route in logs.
	Name     string
	Method   string
	Template string
	Handler  http.Handler
}

// Routes returns the route table served by h. The table is built once; callers
// must not modify it.
func (h *Handler) Routes() []Route {
	return []Route{
		// Cluster manager
		{"get-node-detail", http.MethodGet, clusterManagerV3 + "/machines/{m}", h.serveFixture(fixture.MachineDetail)},
		{"resize-node-devices", http.MethodPost, clusterManagerV3 + "/machines/{m}/actions/resize", h.serveLiteral(successBody)},
		{"get-nodegroup-list", http.MethodGet, clusterManagerV2 + "/nodegroups", h.serveFixture(fixture.NodeGroupList)},
		{"get-nodegroup-detail", http.MethodGet, clusterManagerV2 + "/nodegroups/{ng}", h.serveFixture(fixture.NodeGroupDetail)},

		// Fabric manager
		{"get-machine-list", http.MethodGet, fabricManager + "/machines", h.serveFixture(fixture.MachineList)},
		{"get-machine", http.MethodGet, fabricManager + "/machines/{m}", h.serveFixture(fixture.MachineGetResponse)},
		{"get-available-resources", http.MethodGet, fabricManager + "/machines/{m}/available-reserved-resources", h.serveFixture(fixture.MachineAvailable)},
		{"patch-devices", http.MethodPatch, fabricManager + "/machines/{m}/update", h.serveAllocation(fixture.PatchPool)},
		{"delete-devices", http.MethodDelete, fabricManager + "/machines/{m}/update", h.serveLiteral(successBody)},

		// Identity manager
		{"get-token", http.MethodPost, idManager + "/token", http.HandlerFunc(h.handleToken)},

		{"health", http.MethodGet, "/healthz", http.HandlerFunc(h.handleHealth)},
	}
}
