package powerbi

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DashboardsScanned counts dashboards processed across all runs.
	DashboardsScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "powerbi_dashboards_scanned_total",
		Help: "Total number of PowerBI dashboards scanned",
	})

	// ChartsScanned counts tiles/charts processed across all runs.
	ChartsScanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "powerbi_charts_scanned_total",
		Help: "Total number of PowerBI charts scanned",
	})

	// WorkspacesFiltered counts workspaces excluded by workspace_id_pattern.
	WorkspacesFiltered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "powerbi_workspaces_filtered_total",
		Help: "Total number of PowerBI workspaces filtered out by pattern",
	})

	// WorkspacesSelected reports the workspace count of the latest discovery.
	WorkspacesSelected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "powerbi_workspaces_selected",
		Help: "Number of PowerBI workspaces selected in the latest discovery",
	})
)

// ScanReport accumulates per-run counters for diagnostics and the run
// summary. It is safe for concurrent use by the client and the mapper.
type ScanReport struct {
	mu sync.Mutex

	DashboardsScanned  int
	ChartsScanned      int
	FilteredDashboards []string
	FilteredCharts     []string
	FilteredWorkspaces []string
	NumberOfWorkspaces int
}

// NewScanReport creates an empty report for one run.
func NewScanReport() *ScanReport {
	return &ScanReport{}
}

// ReportDashboardsScanned adds count scanned dashboards.
func (r *ScanReport) ReportDashboardsScanned(count int) {
	r.mu.Lock()
	r.DashboardsScanned += count
	r.mu.Unlock()
	DashboardsScanned.Add(float64(count))
}

// ReportChartsScanned adds count scanned charts.
func (r *ScanReport) ReportChartsScanned(count int) {
	r.mu.Lock()
	r.ChartsScanned += count
	r.mu.Unlock()
	ChartsScanned.Add(float64(count))
}

// ReportDashboardDropped records a dashboard excluded from emission.
func (r *ScanReport) ReportDashboardDropped(name string) {
	r.mu.Lock()
	r.FilteredDashboards = append(r.FilteredDashboards, name)
	r.mu.Unlock()
}

// ReportChartDropped records a chart excluded from emission.
func (r *ScanReport) ReportChartDropped(name string) {
	r.mu.Lock()
	r.FilteredCharts = append(r.FilteredCharts, name)
	r.mu.Unlock()
}

// ReportWorkspaceFiltered records a workspace excluded by pattern.
func (r *ScanReport) ReportWorkspaceFiltered(id string) {
	r.mu.Lock()
	r.FilteredWorkspaces = append(r.FilteredWorkspaces, id)
	r.mu.Unlock()
	WorkspacesFiltered.Inc()
}

// ReportNumberOfWorkspaces sets the selected-workspace count for the run.
func (r *ScanReport) ReportNumberOfWorkspaces(n int) {
	r.mu.Lock()
	r.NumberOfWorkspaces = n
	r.mu.Unlock()
	WorkspacesSelected.Set(float64(n))
}
