package domain

// RawRecord is the fixed shape a DetailParser/ReleaseParser extracts from
// one (humVersionId, language) page pair, before any normalization.
type RawRecord struct {
	HumVersionID        string
	Lang                Lang
	Summary             RawSummary
	MolecularData       []RawMolDataRow
	DataProvider        RawDataProvider
	Publications        []RawPublication
	ControlledAccessUsers []RawControlledAccessUser
	Releases            []RawRelease
}

// RawSummary is the top-of-page summary block.
type RawSummary struct {
	Title    *string
	Aims     *string
	Methods  *string
	Targets  *string
	URL      *string
	Datasets []RawDatasetSummary
	Footers  []string
}

// RawDatasetSummary is one row of the summary dataset table: a dataset-id
// cell plus whatever criteria/releaseDate/typeOfData accompanies it.
type RawDatasetSummary struct {
	RawIDs      string // uncleaned cell text, possibly containing several tokens
	Criteria    *string
	ReleaseDate *string
	TypeOfData  *string
}

// RawMolDataRow is one row of the molecular-data table.
type RawMolDataRow struct {
	RawID   string // uncleaned header-adjacent id cell, may be empty
	Header  string
	Data    map[string]RawCell
	Footers []string
}

// RawCell holds either a single value or a multi-valued cell (e.g. a
// platform column listing several instrument names); Normalizer/Structurer
// prefer the first element when a single value is required.
type RawCell struct {
	Values []string
}

// First returns the first value, or empty string.
func (c RawCell) First() string {
	if len(c.Values) == 0 {
		return ""
	}
	return c.Values[0]
}

type RawDataProvider struct {
	PrincipalInvestigator []string
	Affiliation           []string
	ProjectName           []string
	ProjectURL            []string
	Grants                []string
}

type RawPublication struct {
	Title      string
	DOI        string
	RawDatasetIDs string
}

type RawControlledAccessUser struct {
	Organisation  string
	Name          string
	Period        string
	RawDatasetIDs string
}

type RawRelease struct {
	Version     int
	ReleaseDate string
	Note        string
}

// NormalizedRecord is the output of Normalizer: same shape as RawRecord but
// with every field canonicalized per spec.md §4.3, ID lists cleaned, and
// dataset-id extraction attached to each molecular-data row.
type NormalizedRecord struct {
	HumVersionID  string
	Lang          Lang
	Summary       NormalizedSummary
	MolecularData []NormalizedMolDataRow
	DataProvider  NormalizedDataProvider
	Publications  []NormalizedPublication
	ControlledAccessUsers []NormalizedControlledAccessUser
	Releases      []NormalizedRelease
}

type NormalizedSummary struct {
	Title    *string
	Aims     *string
	Methods  *string
	Targets  *string
	URL      *string
	Datasets []NormalizedDatasetSummary
	Footers  []string
}

// NormalizedDatasetSummary is a summary-table row after ID reconciliation:
// one raw cell may expand into several clean dataset ids.
type NormalizedDatasetSummary struct {
	DatasetIDs  []string
	Criteria    []Criteria
	ReleaseDate *string
	TypeOfData  *string
}

type NormalizedMolDataRow struct {
	// ExtractedDatasetIDs is the set of dataset-id tokens harvested from the
	// header and id-bearing fields of this row (spec.md §4.4.1).
	ExtractedDatasetIDs []string
	Header              TextValue
	Data                map[string][]TextValue
	Footers             []TextValue
}

type NormalizedDataProvider struct {
	PrincipalInvestigator []string
	Affiliation           []string
	ProjectName           []string
	ProjectURL            []string
	Grants                []NormalizedGrant
}

type NormalizedGrant struct {
	ID     string
	Title  string
	Agency string
}

type NormalizedPublication struct {
	Title      string
	DOI        *string
	DatasetIDs []string
}

type NormalizedControlledAccessUser struct {
	Organisation string
	Name         string
	Period       *Period
	DatasetIDs   []string
}

type NormalizedRelease struct {
	Version     int
	ReleaseDate *string
	Note        TextValue
}
