package powerbi

// Workspace is a PowerBI group as returned by the REST and Admin APIs.
type Workspace struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Type                  string `json:"type,omitempty"`
	State                 string `json:"state,omitempty"`
	IsOnDedicatedCapacity bool   `json:"isOnDedicatedCapacity,omitempty"`
}

// Dashboard is a PowerBI dashboard with its tiles.
type Dashboard struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	WebURL      string `json:"webUrl,omitempty"`
	EmbedURL    string `json:"embedUrl,omitempty"`
	IsReadOnly  bool   `json:"isReadOnly,omitempty"`

	Tiles []Tile `json:"tiles,omitempty"`
	Users []User `json:"users,omitempty"`
}

// Tile is a visual pinned to a dashboard, optionally backed by a dataset or
// report.
type Tile struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	EmbedURL    string `json:"embedUrl,omitempty"`
	DatasetID   string `json:"datasetId,omitempty"`
	ReportID    string `json:"reportId,omitempty"`
	CreatedFrom string `json:"createdFrom,omitempty"`
}

// Report is a PowerBI report with its pages.
type Report struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DatasetID   string `json:"datasetId,omitempty"`
	WebURL      string `json:"webUrl,omitempty"`
	EmbedURL    string `json:"embedUrl,omitempty"`
	Description string `json:"description,omitempty"`

	Pages []Page `json:"pages,omitempty"`
	Users []User `json:"users,omitempty"`
}

// Page is a single report page.
type Page struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Order       int    `json:"order"`
}

// Dataset is a PowerBI dataset; tables are only populated by admin scans.
type Dataset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WebURL      string `json:"webUrl,omitempty"`
	Description string `json:"description,omitempty"`

	Tables      []Table      `json:"tables,omitempty"`
	Endorsement *Endorsement `json:"endorsementDetails,omitempty"`
	Upstream    []Datasource `json:"datasourceUsages,omitempty"`
}

// Table is a dataset table with the M-Query source expressions an admin scan
// exposes.
type Table struct {
	Name   string        `json:"name"`
	Source []TableSource `json:"source,omitempty"`
}

// TableSource carries one M-Query expression of a table.
type TableSource struct {
	Expression string `json:"expression"`
}

// Datasource describes the upstream system a dataset reads from.
type Datasource struct {
	DatasourceType    string            `json:"datasourceType"`
	DatasourceID      string            `json:"datasourceId,omitempty"`
	ConnectionDetails ConnectionDetails `json:"connectionDetails"`
}

// ConnectionDetails identifies the upstream server and database.
type ConnectionDetails struct {
	Server   string `json:"server,omitempty"`
	Database string `json:"database,omitempty"`
	// Project and Dataset are set for Google BigQuery sources.
	Project string `json:"project,omitempty"`
	Dataset string `json:"dataset,omitempty"`
}

// User is a principal with access to an asset.
type User struct {
	EmailAddress             string `json:"emailAddress,omitempty"`
	DisplayName              string `json:"displayName,omitempty"`
	Identifier               string `json:"identifier,omitempty"`
	GraphID                  string `json:"graphId,omitempty"`
	PrincipalType            string `json:"principalType,omitempty"`
	DashboardUserAccessRight string `json:"dashboardUserAccessRight,omitempty"`
	ReportUserAccessRight    string `json:"reportUserAccessRight,omitempty"`
}

// Endorsement is the certification state of an asset.
type Endorsement struct {
	Endorsement string `json:"endorsement"`
}

// WorkspaceInfo is the admin scan's view of one workspace.
type WorkspaceInfo struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	State      string      `json:"state,omitempty"`
	Dashboards []Dashboard `json:"dashboards,omitempty"`
	Reports    []Report    `json:"reports,omitempty"`
	Datasets   []Dataset   `json:"datasets,omitempty"`
}

// groupsResponse is the paged envelope around workspace listings.
type groupsResponse struct {
	ODataCount int         `json:"@odata.count,omitempty"`
	Value      []Workspace `json:"value"`
}

type dashboardsResponse struct {
	Value []Dashboard `json:"value"`
}

type tilesResponse struct {
	Value []Tile `json:"value"`
}

type reportsResponse struct {
	Value []Report `json:"value"`
}

type pagesResponse struct {
	Value []Page `json:"value"`
}

type usersResponse struct {
	Value []User `json:"value"`
}

// scanCreateResponse is returned by the admin getInfo call.
type scanCreateResponse struct {
	ID string `json:"id"`
}

// scanStatusResponse reports the state of an in-flight admin scan.
type scanStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// scanResultResponse is the completed admin scan payload.
type scanResultResponse struct {
	Workspaces []WorkspaceInfo `json:"workspaces"`
}
