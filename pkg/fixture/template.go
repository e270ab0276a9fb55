package fixture

import (
	"strings"
)

// Fixture path templates, relative to the fixture root.
const (
	MachineDetail      = "machines/{m}/detail.json"
	MachineList        = "machines/list.json"
	MachineGetResponse = "machines/{m}/fm_get_response.json"
	MachineAvailable   = "machines/{m}/available.json"
	NodeGroupList      = "nodegroups/list.json"
	NodeGroupDetail    = "nodegroups/{ng}/detail.json"

	// PatchPool is the incoming pool of PATCH responses for one machine.
	PatchPool = "machines/{m}/fm_patch_response"
	// AllocatedDir is the subdirectory of a pool that consumed entries move to.
	AllocatedDir = "allocated"
)

// Expand substitutes {name} placeholders in template with params.
// Values are inserted verbatim; unknown placeholders are left untouched.
func Expand(template string, params map[string]string) string {
	if len(params) == 0 || !strings.Contains(template, "{") {
		return template
	}
	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
