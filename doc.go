// Package connector is the root of the PowerBI metadata connector: it
// discovers workspaces in a PowerBI tenant, runs admin metadata scans, and
// maps dashboards, charts, reports, and datasets into catalog entities with
// upstream lineage.
//
// # Packages
//
//   - pkg/config: recipe loading, normalization, and validation. Raw recipe
//     mappings pass through normalization rules and a typed schema before a
//     validated ConnectorConfig is produced; invalid recipes never yield a
//     partially constructed config.
//   - pkg/powerbi: the REST and Admin API client, workspace discovery, the
//     admin scan flow, and the per-run scan report.
//   - pkg/mapper: URN construction and asset-to-entity mapping, including
//     lineage resolution through server_to_platform_instance and the legacy
//     dataset_type_mapping.
//   - pkg/state: stateful-ingestion settings and the checkpoint surface used
//     for stale-metadata removal.
//   - pkg/pbierrors, pkg/logger, pkg/jsonx: structured errors, zap-based
//     logging, and JSON helpers shared across the connector.
//
// # Quick Start
//
//	cfg, err := config.Load("recipe.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report := powerbi.NewScanReport()
//	client := powerbi.NewClient(ctx, cfg, report)
//	workspaces, err := client.DiscoverWorkspaces(ctx)
//
// The cmd/powerbi-connector binary wires these together behind `validate` and
// `run` subcommands.
package connector
