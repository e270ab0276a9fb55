package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchPath(t *testing.T) {
	tests := []struct {
		name       string
		template   string
		path       string
		wantScore  int
		wantParams map[string]string
	}{
		{
			name:       "exact match",
			template:   "/fabric_manager/api/v1/machines",
			path:       "/fabric_manager/api/v1/machines",
			wantScore:  ScorePathExact,
			wantParams: map[string]string{},
		},
		{
			name:       "single parameter",
			template:   "/fabric_manager/api/v1/machines/{m}",
			path:       "/fabric_manager/api/v1/machines/m-001",
			wantScore:  ScorePathNamedParams + 4,
			wantParams: map[string]string{"m": "m-001"},
		},
		{
			name:     "several parameters",
			template: "/cluster_manager/cluster_autoscaler/v3/tenants/{t}/clusters/{c}/machines/{m}",
			path:     "/cluster_manager/cluster_autoscaler/v3/tenants/t1/clusters/c1/machines/m1",
			// cluster_manager, cluster_autoscaler, v3, tenants, clusters, machines
			wantScore:  ScorePathNamedParams + 6,
			wantParams: map[string]string{"t": "t1", "c": "c1", "m": "m1"},
		},
		{
			name:       "empty segment binds empty string",
			template:   "/id_manager/realms/{realm}/protocol/openid-connect/token",
			path:       "/id_manager/realms//protocol/openid-connect/token",
			wantScore:  ScorePathNamedParams + 5,
			wantParams: map[string]string{"realm": ""},
		},
		{
			name:     "trailing slash is an extra segment",
			template: "/fabric_manager/api/v1/machines/{m}",
			path:     "/fabric_manager/api/v1/machines/abc/",
		},
		{
			name:     "trailing slash on literal template",
			template: "/fabric_manager/api/v1/machines",
			path:     "/fabric_manager/api/v1/machines/",
		},
		{
			name:     "doubled leading slash",
			template: "/fabric_manager/api/v1/machines",
			path:     "//fabric_manager/api/v1/machines",
		},
		{
			name:     "segment count differs",
			template: "/fabric_manager/api/v1/machines/{m}",
			path:     "/fabric_manager/api/v1/machines/abc/available-reserved-resources",
		},
		{
			name:     "literal mismatch",
			template: "/fabric_manager/api/v1/machines/{m}/update",
			path:     "/fabric_manager/api/v1/machines/abc/upgrade",
		},
		{
			name:     "parameter does not span segments",
			template: "/fabric_manager/api/v1/machines/{m}",
			path:     "/fabric_manager/api/v1/machines/a/b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, params := MatchPath(tt.template, tt.path)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestMatchPath_PrefersMoreLiteralSegments(t *testing.T) {
	loose, _ := MatchPath("/fabric_manager/api/v1/{kind}/{id}", "/fabric_manager/api/v1/machines/42")
	strict, _ := MatchPath("/fabric_manager/api/v1/machines/{id}", "/fabric_manager/api/v1/machines/42")

	require.NotZero(t, loose)
	require.NotZero(t, strict)
	assert.Greater(t, strict, loose)
}

func TestMatchPath_ExactOutranksLongParamTemplate(t *testing.T) {
	path := "/a/b/c/d/e/f/g/h/i/j/k/l/m/n/o/p"
	exact, _ := MatchPath(path, path)
	param, _ := MatchPath("/a/b/c/d/e/f/g/h/i/j/k/l/m/n/o/{last}", path)

	require.NotZero(t, param)
	assert.Greater(t, exact, param)
}

func TestParamNames(t *testing.T) {
	assert.Equal(t,
		[]string{"t", "c", "ng"},
		ParamNames("/cluster_manager/cluster_autoscaler/v2/tenants/{t}/clusters/{c}/nodegroups/{ng}"))
	assert.Nil(t, ParamNames("/fabric_manager/api/v1/machines"))
}

func TestValidateTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		wantErr  bool
	}{
		{"literal", "/healthz", false},
		{"params", "/a/{x}/b/{y}", false},
		{"missing leading slash", "a/{x}", true},
		{"partial segment", "/a/x{y}", true},
		{"empty name", "/a/{}", true},
		{"duplicate name", "/a/{x}/b/{x}", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTemplate(tt.template)
			if tt.wantErr {
				var te *TemplateError
				require.ErrorAs(t, err, &te)
				assert.Equal(t, tt.template, te.Template)
				return
			}
			assert.NoError(t, err)
		})
	}
}
