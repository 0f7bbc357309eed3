package mapper

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencatalog/powerbi-connector/pkg/powerbi"
)

func sampleWorkspace() powerbi.WorkspaceInfo {
	return powerbi.WorkspaceInfo{
		ID:   "WS1",
		Name: "Sales",
		Dashboards: []powerbi.Dashboard{
			{
				ID:          "D1",
				DisplayName: "Revenue",
				Tiles: []powerbi.Tile{
					{ID: "T1", Title: "Monthly Revenue"},
					{ID: "T2", Title: "Pipeline"},
				},
				Users: []powerbi.User{{EmailAddress: "owner@example.com"}},
			},
		},
		Reports: []powerbi.Report{
			{
				ID:   "R1",
				Name: "Quarterly",
				Pages: []powerbi.Page{
					{Name: "p1", DisplayName: "Summary", Order: 0},
				},
			},
		},
		Datasets: []powerbi.Dataset{
			{
				ID:          "DS1",
				Name:        "SalesModel",
				Endorsement: &powerbi.Endorsement{Endorsement: "Certified"},
				Upstream: []powerbi.Datasource{
					{
						DatasourceType:    "Snowflake",
						ConnectionDetails: powerbi.ConnectionDetails{Server: "sf.example.com", Database: "SALES"},
					},
				},
			},
		},
	}
}

func entityTypes(entities []Entity) map[string]int {
	counts := make(map[string]int)
	for _, e := range entities {
		counts[e.Type]++
	}
	return counts
}

func findEntity(t *testing.T, entities []Entity, entityType string) Entity {
	t.Helper()
	for _, e := range entities {
		if e.Type == entityType {
			return e
		}
	}
	t.Fatalf("no entity of type %s", entityType)
	return Entity{}
}

func TestMapWorkspaceDefaults(t *testing.T) {
	cfg := testConfig(t, nil)
	report := powerbi.NewScanReport()
	m := New(cfg, report)

	entities := m.MapWorkspace(sampleWorkspace())
	counts := entityTypes(entities)

	assert.Equal(t, 1, counts["container"])
	assert.Equal(t, 2, counts["chart"])
	assert.Equal(t, 1, counts["dataset"])
	// one dashboard plus one report mapped as dashboard
	assert.Equal(t, 2, counts["dashboard"])

	assert.Equal(t, 1, report.DashboardsScanned)
	assert.Equal(t, 2, report.ChartsScanned)
}

func TestMapWorkspaceTogglesOffEverything(t *testing.T) {
	cfg := testConfig(t, map[string]interface{}{
		"extract_reports":                  false,
		"extract_workspaces_to_containers": false,
		"extract_lineage":                  false,
	})
	m := New(cfg, nil)

	entities := m.MapWorkspace(sampleWorkspace())
	counts := entityTypes(entities)

	assert.Zero(t, counts["container"])
	assert.Equal(t, 1, counts["dashboard"])

	ds := findEntity(t, entities, "dataset")
	assert.NotContains(t, ds.Aspects, aspectUpstreams)
}

func TestMapDatasetLineage(t *testing.T) {
	cfg := testConfig(t, nil)
	m := New(cfg, nil)

	entities := m.MapWorkspace(sampleWorkspace())
	ds := findEntity(t, entities, "dataset")

	lineage, ok := ds.Aspects[aspectUpstreams].(map[string]interface{})
	require.True(t, ok)
	upstreams, ok := lineage["upstreams"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, upstreams, 1)
	assert.Equal(t,
		"urn:li:dataset:(urn:li:dataplatform:snowflake,sales,prod)",
		upstreams[0]["dataset"])
}

func TestNativeQueryGate(t *testing.T) {
	ws := sampleWorkspace()
	ws.Datasets[0].Tables = []powerbi.Table{
		{Name: "orders", Source: []powerbi.TableSource{
			{Expression: `Value.NativeQuery(Snowflake.Databases(...), "select 1")`},
		}},
	}

	t.Run("parsing enabled keeps lineage", func(t *testing.T) {
		m := New(testConfig(t, nil), nil)
		ds := findEntity(t, m.MapWorkspace(ws), "dataset")
		assert.Contains(t, ds.Aspects, aspectUpstreams)
	})

	t.Run("parsing disabled drops native-query lineage", func(t *testing.T) {
		m := New(testConfig(t, map[string]interface{}{
			"native_query_parsing": false,
		}), nil)
		ds := findEntity(t, m.MapWorkspace(ws), "dataset")
		assert.NotContains(t, ds.Aspects, aspectUpstreams)
	})
}

func TestOwnershipToggle(t *testing.T) {
	t.Run("off by default", func(t *testing.T) {
		m := New(testConfig(t, nil), nil)
		entities := m.MapWorkspace(sampleWorkspace())
		for _, e := range entities {
			assert.NotContains(t, e.Aspects, aspectOwnership)
		}
	})

	t.Run("dashboard owners extracted when enabled", func(t *testing.T) {
		m := New(testConfig(t, map[string]interface{}{"extract_ownership": true}), nil)
		entities := m.MapWorkspace(sampleWorkspace())

		found := false
		for _, e := range entities {
			if owners, ok := e.Aspects[aspectOwnership]; ok {
				found = true
				assert.Contains(t, owners.(map[string]interface{})["owners"].([]map[string]interface{})[0]["owner"],
					"urn:li:corpuser:owner@example.com")
			}
		}
		assert.True(t, found)
	})
}

func TestEndorsementsToTags(t *testing.T) {
	m := New(testConfig(t, map[string]interface{}{
		"extract_endorsements_to_tags": true,
	}), nil)

	ds := findEntity(t, m.MapWorkspace(sampleWorkspace()), "dataset")
	tags, ok := ds.Aspects[aspectGlobalTags].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []string{"urn:li:tag:Certified"}, tags["tags"])
}

func TestAdminAPIsOnlySkipsReportPages(t *testing.T) {
	m := New(testConfig(t, map[string]interface{}{"admin_apis_only": true}), nil)

	entities := m.MapWorkspace(sampleWorkspace())
	for _, e := range entities {
		info, ok := e.Aspects[aspectDashboardInfo].(map[string]interface{})
		if !ok {
			continue
		}
		assert.NotContains(t, info, "pages")
	}
}

func TestEmitWritesJSONLines(t *testing.T) {
	m := New(testConfig(t, nil), nil)
	entities := m.MapWorkspace(sampleWorkspace())

	var buf bytes.Buffer
	require.NoError(t, Emit(&buf, entities))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, len(entities))
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, `{"urn":`))
	}
}
