package powerbi

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScanReportCounters(t *testing.T) {
	r := NewScanReport()
	r.ReportDashboardsScanned(2)
	r.ReportChartsScanned(5)
	r.ReportDashboardDropped("old-dashboard")
	r.ReportChartDropped("old-chart")
	r.ReportWorkspaceFiltered("ws-tmp")
	r.ReportNumberOfWorkspaces(3)

	assert.Equal(t, 2, r.DashboardsScanned)
	assert.Equal(t, 5, r.ChartsScanned)
	assert.Equal(t, []string{"old-dashboard"}, r.FilteredDashboards)
	assert.Equal(t, []string{"old-chart"}, r.FilteredCharts)
	assert.Equal(t, []string{"ws-tmp"}, r.FilteredWorkspaces)
	assert.Equal(t, 3, r.NumberOfWorkspaces)
}

func TestScanReportConcurrentUse(t *testing.T) {
	r := NewScanReport()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.ReportDashboardsScanned(1)
			r.ReportChartsScanned(2)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, r.DashboardsScanned)
	assert.Equal(t, 100, r.ChartsScanned)
}
