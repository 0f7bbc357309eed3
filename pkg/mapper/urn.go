// Package mapper turns PowerBI assets into catalog entities. It consumes the
// validated connector configuration read-only: the extract toggles decide
// which entities are produced, the convert toggles control urn casing, and
// the server-to-platform-instance mapping drives lineage resolution.
package mapper

import (
	"fmt"
	"strings"

	"github.com/opencatalog/powerbi-connector/pkg/config"
)

// Asset id templates mirror the ids the PowerBI service exposes.
const (
	dashboardIDFormat = "powerbi.linkedin.com/dashboards/%s"
	chartIDFormat     = "powerbi.linkedin.com/charts/%s"
)

// URNBuilder builds catalog urns with the configured platform, instance, and
// casing rules applied.
type URNBuilder struct {
	cfg *config.ConnectorConfig
}

// NewURNBuilder creates a builder bound to one run's configuration.
func NewURNBuilder(cfg *config.ConnectorConfig) *URNBuilder {
	return &URNBuilder{cfg: cfg}
}

// Dashboard builds the urn for a dashboard id.
func (b *URNBuilder) Dashboard(dashboardID string) string {
	urn := fmt.Sprintf("urn:li:dashboard:(%s,%s)",
		b.cfg.PlatformName, fmt.Sprintf(dashboardIDFormat, dashboardID))
	return b.caseAsset(urn)
}

// Chart builds the urn for a tile id.
func (b *URNBuilder) Chart(tileID string) string {
	urn := fmt.Sprintf("urn:li:chart:(%s,%s)",
		b.cfg.PlatformName, fmt.Sprintf(chartIDFormat, tileID))
	return b.caseAsset(urn)
}

// Dataset builds the urn for a PowerBI dataset owned by this connector.
func (b *URNBuilder) Dataset(name string) string {
	qualified := name
	if b.cfg.PlatformInstance != "" {
		qualified = b.cfg.PlatformInstance + "." + name
	}
	urn := fmt.Sprintf("urn:li:dataset:(%s,%s,%s)", b.cfg.PlatformURN, qualified, b.cfg.Env)
	return b.caseAsset(urn)
}

// UpstreamDataset builds the urn for an upstream (lineage) dataset on
// another platform, applying the lineage casing toggle.
func (b *URNBuilder) UpstreamDataset(platform string, detail config.PlatformDetail, name string) string {
	qualified := name
	if detail.PlatformInstance != "" {
		qualified = detail.PlatformInstance + "." + name
	}
	env := detail.Env
	if env == "" {
		env = config.DefaultEnv
	}
	urn := fmt.Sprintf("urn:li:dataset:(%s,%s,%s)",
		config.MakeDataPlatformURN(platform), qualified, env)
	if b.cfg.ConvertLineageURNsToLowercase {
		return strings.ToLower(urn)
	}
	return urn
}

// Container builds the urn for a workspace container.
func (b *URNBuilder) Container(workspaceID string) string {
	return b.caseAsset("urn:li:container:" + workspaceID)
}

// CorpUser builds the urn for a principal.
func (b *URNBuilder) CorpUser(identifier string) string {
	return "urn:li:corpuser:" + identifier
}

// Tag builds the urn for an endorsement tag.
func (b *URNBuilder) Tag(name string) string {
	return "urn:li:tag:" + name
}

func (b *URNBuilder) caseAsset(urn string) string {
	if b.cfg.ConvertURNsToLowercase {
		return strings.ToLower(urn)
	}
	return urn
}
