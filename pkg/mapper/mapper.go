package mapper

import (
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/opencatalog/powerbi-connector/pkg/config"
	"github.com/opencatalog/powerbi-connector/pkg/jsonx"
	"github.com/opencatalog/powerbi-connector/pkg/logger"
	"github.com/opencatalog/powerbi-connector/pkg/powerbi"
)

// Aspect names carried on emitted entities.
const (
	aspectDashboardInfo = "dashboardInfo"
	aspectChartInfo     = "chartInfo"
	aspectDatasetProps  = "datasetProperties"
	aspectOwnership     = "ownership"
	aspectGlobalTags    = "globalTags"
	aspectUpstreams     = "upstreamLineage"
	aspectContainer     = "containerProperties"
	aspectInstance      = "dataPlatformInstance"
)

// Entity is one catalog record produced by the mapper. The catalog wire
// protocol is out of scope here; entities are emitted as JSON lines.
type Entity struct {
	URN     string                 `json:"urn"`
	Type    string                 `json:"type"`
	Aspects map[string]interface{} `json:"aspects"`
}

// Mapper maps scanned PowerBI assets into catalog entities according to the
// run configuration.
type Mapper struct {
	cfg    *config.ConnectorConfig
	urns   *URNBuilder
	report *powerbi.ScanReport
	log    *zap.Logger
}

// New creates a mapper bound to one run's configuration and report.
func New(cfg *config.ConnectorConfig, report *powerbi.ScanReport) *Mapper {
	return &Mapper{
		cfg:    cfg,
		urns:   NewURNBuilder(cfg),
		report: report,
		log:    logger.With(zap.String("component", "mapper")),
	}
}

// MapWorkspace maps everything scanned from one workspace.
func (m *Mapper) MapWorkspace(ws powerbi.WorkspaceInfo) []Entity {
	var entities []Entity

	if m.cfg.ExtractWorkspacesToContainers {
		entities = append(entities, m.mapContainer(ws))
	}

	for _, ds := range ws.Datasets {
		entities = append(entities, m.mapDataset(ws, ds)...)
	}

	for _, dash := range ws.Dashboards {
		entities = append(entities, m.mapDashboard(ws, dash)...)
	}

	if m.cfg.ExtractReports {
		for _, rep := range ws.Reports {
			entities = append(entities, m.mapReport(ws, rep)...)
		}
	}

	return entities
}

func (m *Mapper) mapContainer(ws powerbi.WorkspaceInfo) Entity {
	return Entity{
		URN:  m.urns.Container(ws.ID),
		Type: "container",
		Aspects: map[string]interface{}{
			aspectContainer: map[string]interface{}{
				"name":        ws.Name,
				"workspaceId": ws.ID,
				"platform":    m.cfg.PlatformURN,
			},
		},
	}
}

func (m *Mapper) mapDataset(ws powerbi.WorkspaceInfo, ds powerbi.Dataset) []Entity {
	aspects := map[string]interface{}{
		aspectDatasetProps: map[string]interface{}{
			"name":        ds.Name,
			"description": ds.Description,
			"webUrl":      ds.WebURL,
		},
	}
	if m.cfg.PlatformInstance != "" {
		aspects[aspectInstance] = map[string]interface{}{
			"platform": m.cfg.PlatformURN,
			"instance": m.cfg.PlatformInstance,
		}
	}

	if m.cfg.ExtractEndorsementsToTags && ds.Endorsement != nil && ds.Endorsement.Endorsement != "" {
		aspects[aspectGlobalTags] = map[string]interface{}{
			"tags": []string{m.urns.Tag(ds.Endorsement.Endorsement)},
		}
	}

	if m.cfg.ExtractLineage {
		if upstreams := m.mapUpstreams(ds); len(upstreams) > 0 {
			aspects[aspectUpstreams] = map[string]interface{}{"upstreams": upstreams}
		}
	}

	return []Entity{{
		URN:     m.urns.Dataset(ds.Name),
		Type:    "dataset",
		Aspects: aspects,
	}}
}

// mapUpstreams resolves lineage edges for a dataset. Tables defined by a
// native query are skipped when native query parsing is disabled, since
// their expressions cannot be attributed without parsing.
func (m *Mapper) mapUpstreams(ds powerbi.Dataset) []map[string]interface{} {
	if !m.cfg.NativeQueryParsing && datasetUsesNativeQuery(ds) {
		m.log.Debug("skipping native-query lineage", zap.String("dataset", ds.Name))
		return nil
	}

	var upstreams []map[string]interface{}
	for _, source := range ds.Upstream {
		up, ok := ResolveUpstream(m.cfg, source)
		if !ok {
			m.log.Warn("unsupported datasource type for lineage",
				zap.String("dataset", ds.Name),
				zap.String("datasource_type", source.DatasourceType))
			continue
		}
		name := source.ConnectionDetails.Database
		if name == "" {
			name = source.ConnectionDetails.Dataset
		}
		upstreams = append(upstreams, map[string]interface{}{
			"dataset": m.urns.UpstreamDataset(up.Platform, up.Detail, name),
			"type":    "TRANSFORMED",
		})
	}
	return upstreams
}

func datasetUsesNativeQuery(ds powerbi.Dataset) bool {
	for _, table := range ds.Tables {
		for _, src := range table.Source {
			if strings.Contains(src.Expression, "Value.NativeQuery") {
				return true
			}
		}
	}
	return false
}

func (m *Mapper) mapDashboard(ws powerbi.WorkspaceInfo, dash powerbi.Dashboard) []Entity {
	chartURNs := make([]string, 0, len(dash.Tiles))
	entities := make([]Entity, 0, len(dash.Tiles)+1)

	for _, tile := range dash.Tiles {
		urn := m.urns.Chart(tile.ID)
		chartURNs = append(chartURNs, urn)
		entities = append(entities, Entity{
			URN:  urn,
			Type: "chart",
			Aspects: map[string]interface{}{
				aspectChartInfo: map[string]interface{}{
					"title":     tile.Title,
					"embedUrl":  tile.EmbedURL,
					"datasetId": tile.DatasetID,
					"reportId":  tile.ReportID,
				},
			},
		})
	}
	if m.report != nil {
		m.report.ReportChartsScanned(len(dash.Tiles))
	}

	aspects := map[string]interface{}{
		aspectDashboardInfo: map[string]interface{}{
			"title":      dash.DisplayName,
			"webUrl":     dash.WebURL,
			"charts":     chartURNs,
			"chartCount": len(chartURNs),
		},
	}
	if m.cfg.ExtractOwnership {
		if owners := m.mapOwners(dash.Users); len(owners) > 0 {
			aspects[aspectOwnership] = map[string]interface{}{"owners": owners}
		}
	}

	entities = append(entities, Entity{
		URN:     m.urns.Dashboard(dash.ID),
		Type:    "dashboard",
		Aspects: aspects,
	})
	if m.report != nil {
		m.report.ReportDashboardsScanned(1)
	}
	return entities
}

// mapReport maps a report and its pages. Pages are unavailable through the
// admin APIs, so an admin-apis-only run emits the report without them.
func (m *Mapper) mapReport(ws powerbi.WorkspaceInfo, rep powerbi.Report) []Entity {
	info := map[string]interface{}{
		"title":       rep.Name,
		"description": rep.Description,
		"webUrl":      rep.WebURL,
		"datasetId":   rep.DatasetID,
	}
	if !m.cfg.AdminAPIsOnly && len(rep.Pages) > 0 {
		pages := make([]map[string]interface{}, 0, len(rep.Pages))
		for _, page := range rep.Pages {
			pages = append(pages, map[string]interface{}{
				"name":        page.Name,
				"displayName": page.DisplayName,
				"order":       page.Order,
			})
		}
		info["pages"] = pages
	}

	aspects := map[string]interface{}{aspectDashboardInfo: info}
	if m.cfg.ExtractOwnership {
		if owners := m.mapOwners(rep.Users); len(owners) > 0 {
			aspects[aspectOwnership] = map[string]interface{}{"owners": owners}
		}
	}

	return []Entity{{
		URN:     m.urns.Dashboard(rep.ID),
		Type:    "dashboard",
		Aspects: aspects,
	}}
}

func (m *Mapper) mapOwners(users []powerbi.User) []map[string]interface{} {
	var owners []map[string]interface{}
	for _, u := range users {
		id := u.EmailAddress
		if id == "" {
			id = u.Identifier
		}
		if id == "" {
			continue
		}
		owners = append(owners, map[string]interface{}{
			"owner": m.urns.CorpUser(id),
			"type":  "DATAOWNER",
		})
	}
	return owners
}

// Emit writes entities as JSON lines.
func Emit(w io.Writer, entities []Entity) error {
	for _, e := range entities {
		if err := jsonx.EncodeTo(w, e); err != nil {
			return err
		}
	}
	return nil
}
