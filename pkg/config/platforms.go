package config

// DataPlatformPair associates a PowerBI datasource kind, as it appears in
// M-Query expressions, with the corresponding catalog platform name.
type DataPlatformPair struct {
	PowerBIName string
	CatalogName string
}

// SupportedDataPlatforms is the fixed, ordered list of datasource kinds the
// connector can resolve to catalog platforms.
var SupportedDataPlatforms = []DataPlatformPair{
	{PowerBIName: "PostgreSQL", CatalogName: "postgres"},
	{PowerBIName: "Oracle", CatalogName: "oracle"},
	{PowerBIName: "Snowflake", CatalogName: "snowflake"},
	{PowerBIName: "Sql", CatalogName: "mssql"},
	{PowerBIName: "GoogleBigQuery", CatalogName: "bigquery"},
	{PowerBIName: "AmazonRedshift", CatalogName: "redshift"},
}

// LookupPlatform returns the platform pair for a PowerBI datasource kind.
func LookupPlatform(powerBIName string) (DataPlatformPair, bool) {
	for _, pair := range SupportedDataPlatforms {
		if pair.PowerBIName == powerBIName {
			return pair, true
		}
	}
	return DataPlatformPair{}, false
}

// DefaultDatasetTypeMapping returns the backward-compatible default for the
// deprecated dataset_type_mapping field: every supported datasource kind
// mapped to its catalog platform name.
func DefaultDatasetTypeMapping() map[string]DatasetTypeEntry {
	m := make(map[string]DatasetTypeEntry, len(SupportedDataPlatforms))
	for _, pair := range SupportedDataPlatforms {
		m[pair.PowerBIName] = DatasetTypeEntry{CatalogPlatform: pair.CatalogName}
	}
	return m
}
