package domain

// OrgUnit is one grouping node in the organization directory with its
// active member accounts.
type OrgUnit struct {
	ID       string
	Name     string
	Accounts []OrgAccount
}

type OrgAccount struct {
	ID   string
	Name string
}

// AccountResult holds one account's scan output inside an org scan. When
// identity assumption failed for the account, Error is set and the account
// contributes zero findings while the rest of the tree still completes.
type AccountResult struct {
	Name          string                 `json:"name"`
	Skills        map[string]SkillResult `json:"skills"`
	FindingsCount int                    `json:"findings_count"`
	CriticalCount int                    `json:"critical_count"`
	MonthlyImpact float64                `json:"monthly_impact"`
	Error         string                 `json:"error,omitempty"`
}

type OrgUnitResult struct {
	Accounts      map[string]AccountResult `json:"accounts"`
	FindingsCount int                      `json:"findings_count"`
	CriticalCount int                      `json:"critical_count"`
	MonthlyImpact float64                  `json:"monthly_impact"`
}

// OrgScanResult is the aggregated tree of one cross-account scan, keyed
// unit -> account -> per-skill result, with rollups bubbled up to the root.
// Findings are never flattened or deduplicated across accounts.
type OrgScanResult struct {
	Units   map[string]OrgUnitResult `json:"units"`
	Summary OrgSummary               `json:"summary"`
}

type OrgSummary struct {
	TotalFindings int     `json:"total_findings"`
	TotalCritical int     `json:"total_critical"`
	MonthlyImpact float64 `json:"monthly_impact"`
}
