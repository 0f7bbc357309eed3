package powerbi

import (
	"context"

	"go.uber.org/zap"
)

// DiscoverWorkspaces lists the workspaces visible to the run and filters
// them through the configured workspace id pattern before any per-workspace
// scan is issued. Filtered workspaces are recorded on the scan report.
func (c *Client) DiscoverWorkspaces(ctx context.Context) ([]Workspace, error) {
	all, err := c.Workspaces(ctx)
	if err != nil {
		return nil, err
	}

	pattern := c.cfg.WorkspaceIDPattern
	selected := make([]Workspace, 0, len(all))
	for _, ws := range all {
		if !pattern.Allowed(ws.ID) {
			c.log.Debug("workspace filtered by workspace_id_pattern",
				zap.String("workspace_id", ws.ID), zap.String("workspace_name", ws.Name))
			if c.report != nil {
				c.report.ReportWorkspaceFiltered(ws.ID)
			}
			continue
		}
		selected = append(selected, ws)
	}

	if c.report != nil {
		c.report.ReportNumberOfWorkspaces(len(selected))
	}
	c.log.Info("workspace discovery complete",
		zap.Int("visible", len(all)), zap.Int("selected", len(selected)))
	return selected, nil
}
