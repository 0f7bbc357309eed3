// Package powerbi implements the PowerBI REST and Admin API client. It
// consumes the validated connector configuration read-only: credentials and
// tenant for authentication, the scan timeout for admin scans, and the
// admin-apis-only toggle for endpoint selection.
package powerbi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/opencatalog/powerbi-connector/pkg/config"
	"github.com/opencatalog/powerbi-connector/pkg/jsonx"
	"github.com/opencatalog/powerbi-connector/pkg/logger"
	"github.com/opencatalog/powerbi-connector/pkg/pbierrors"
)

const (
	defaultAPIBase   = "https://api.powerbi.com/v1.0/myorg"
	defaultAdminBase = defaultAPIBase + "/admin"
	authorityURL     = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	apiScope         = "https://analysis.windows.net/powerbi/api/.default"

	// scanPollInterval is how often an in-flight admin scan is polled.
	scanPollInterval = 1 * time.Second

	scanStatusSucceeded = "Succeeded"
)

// Client talks to the PowerBI service on behalf of one ingestion run.
type Client struct {
	cfg        *config.ConnectorConfig
	httpClient *http.Client
	log        *zap.Logger
	report     *ScanReport
	retry      *retryPolicy

	// Base URLs are fields so tests can point the client at a fake service.
	apiBase   string
	adminBase string
}

// NewClient builds a client whose transport injects service-principal tokens
// for the configured tenant. No network call is made until the first request.
func NewClient(ctx context.Context, cfg *config.ConnectorConfig, report *ScanReport) *Client {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf(authorityURL, cfg.TenantID),
		Scopes:       []string{apiScope},
	}

	return &Client{
		cfg:        cfg,
		httpClient: cc.Client(ctx),
		log:        logger.With(zap.String("tenant_id", cfg.TenantID)),
		report:     report,
		retry:      defaultRetryPolicy(),
		apiBase:    defaultAPIBase,
		adminBase:  defaultAdminBase,
	}
}

// Workspaces lists the workspaces visible to the service principal. With
// admin_apis_only the admin listing is used, which covers the whole tenant.
func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	url := c.apiBase + "/groups"
	if c.cfg.AdminAPIsOnly {
		url = c.adminBase + "/groups?$top=5000"
	}

	var resp groupsResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Dashboards lists the dashboards of a workspace.
func (c *Client) Dashboards(ctx context.Context, workspaceID string) ([]Dashboard, error) {
	var resp dashboardsResponse
	url := fmt.Sprintf("%s/groups/%s/dashboards", c.apiBase, workspaceID)
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Tiles lists the tiles of a dashboard.
func (c *Client) Tiles(ctx context.Context, workspaceID, dashboardID string) ([]Tile, error) {
	var resp tilesResponse
	url := fmt.Sprintf("%s/groups/%s/dashboards/%s/tiles", c.apiBase, workspaceID, dashboardID)
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Reports lists the reports of a workspace.
func (c *Client) Reports(ctx context.Context, workspaceID string) ([]Report, error) {
	var resp reportsResponse
	url := fmt.Sprintf("%s/groups/%s/reports", c.apiBase, workspaceID)
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Pages lists the pages of a report. Pages are unavailable through the admin
// APIs, so callers must not use this when admin_apis_only is set.
func (c *Client) Pages(ctx context.Context, workspaceID, reportID string) ([]Page, error) {
	var resp pagesResponse
	url := fmt.Sprintf("%s/groups/%s/reports/%s/pages", c.apiBase, workspaceID, reportID)
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Dataset fetches a single dataset.
func (c *Client) Dataset(ctx context.Context, workspaceID, datasetID string) (*Dataset, error) {
	var ds Dataset
	url := fmt.Sprintf("%s/groups/%s/datasets/%s", c.apiBase, workspaceID, datasetID)
	if err := c.get(ctx, url, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// DashboardUsers lists the principals with access to a dashboard. Requires
// admin API access.
func (c *Client) DashboardUsers(ctx context.Context, dashboardID string) ([]User, error) {
	var resp usersResponse
	url := fmt.Sprintf("%s/dashboards/%s/users", c.adminBase, dashboardID)
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Scan runs a full admin metadata scan over the given workspaces: create,
// poll until success, fetch result. The poll loop is bounded by the
// configured scan timeout.
func (c *Client) Scan(ctx context.Context, workspaceIDs []string) ([]WorkspaceInfo, error) {
	scanID, err := c.scanCreate(ctx, workspaceIDs)
	if err != nil {
		return nil, err
	}
	if err := c.waitForScan(ctx, scanID); err != nil {
		return nil, err
	}
	return c.scanResult(ctx, scanID)
}

func (c *Client) scanCreate(ctx context.Context, workspaceIDs []string) (string, error) {
	url := c.adminBase + "/workspaces/getInfo" +
		"?datasetExpressions=True&datasetSchema=True&datasourceDetails=True&getArtifactUsers=True&lineage=True"

	body, err := jsonx.Marshal(map[string]interface{}{"workspaces": workspaceIDs})
	if err != nil {
		return "", pbierrors.Wrap(err, pbierrors.ErrorTypeData, "failed to encode scan request")
	}

	var resp scanCreateResponse
	if err := c.do(ctx, http.MethodPost, url, body, &resp); err != nil {
		return "", err
	}

	c.log.Info("admin metadata scan created", zap.String("scan_id", resp.ID),
		zap.Int("workspaces", len(workspaceIDs)))
	return resp.ID, nil
}

func (c *Client) waitForScan(ctx context.Context, scanID string) error {
	deadline := time.Now().Add(time.Duration(c.cfg.ScanTimeoutSeconds) * time.Second)
	url := fmt.Sprintf("%s/workspaces/scanStatus/%s", c.adminBase, scanID)

	for {
		var status scanStatusResponse
		if err := c.get(ctx, url, &status); err != nil {
			return err
		}
		if status.Status == scanStatusSucceeded {
			return nil
		}

		if time.Now().After(deadline) {
			return pbierrors.Newf(pbierrors.ErrorTypeTimeout,
				"admin scan %s did not complete within %d seconds", scanID, c.cfg.ScanTimeoutSeconds)
		}

		select {
		case <-ctx.Done():
			return pbierrors.Wrap(ctx.Err(), pbierrors.ErrorTypeTimeout, "admin scan cancelled")
		case <-time.After(scanPollInterval):
		}
	}
}

func (c *Client) scanResult(ctx context.Context, scanID string) ([]WorkspaceInfo, error) {
	var resp scanResultResponse
	url := fmt.Sprintf("%s/workspaces/scanResult/%s", c.adminBase, scanID)
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.Workspaces, nil
}

func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	return c.do(ctx, http.MethodGet, url, nil, out)
}

// do performs an API call under the retry policy and decodes the JSON
// response. Transport and server failures are classified so the policy can
// tell transient errors from fatal ones.
func (c *Client) do(ctx context.Context, method, url string, body []byte, out interface{}) error {
	return c.retry.do(ctx, func() error {
		return c.doOnce(ctx, method, url, body, out)
	})
}

func (c *Client) doOnce(ctx context.Context, method, url string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return pbierrors.Wrap(err, pbierrors.ErrorTypeInternal, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pbierrors.Wrap(err, pbierrors.ErrorTypeConnection, "powerbi api request failed").
			WithDetail("url", url)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return pbierrors.Newf(pbierrors.ErrorTypeAuthentication,
			"powerbi api returned %d for %s", resp.StatusCode, url)
	case resp.StatusCode == http.StatusTooManyRequests:
		return pbierrors.Newf(pbierrors.ErrorTypeRateLimit,
			"powerbi api rate limited %s", url)
	case resp.StatusCode >= 400:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return pbierrors.Newf(pbierrors.ErrorTypeConnection,
			"powerbi api returned %d for %s: %s", resp.StatusCode, url, string(payload))
	}

	if out == nil {
		return nil
	}
	if err := jsonx.Decode(resp.Body, out); err != nil {
		return pbierrors.Wrap(err, pbierrors.ErrorTypeData, "failed to decode powerbi api response").
			WithDetail("url", url)
	}
	return nil
}
