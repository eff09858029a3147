package models

// Search statuses
const (
	StatusSuccess  = "success"
	StatusNoResult = "no_result"
)

// SearchResult is the outcome of one address search. Only the last three
// fields are part of the API response.
type SearchResult struct {
	Original                   string `json:"-"`
	Shortened                  string `json:"-"`
	Suffix                     string `json:"-"`
	Matched                    string `json:"-"`
	SimplifiedAddress          string `json:"simplified_address"`
	FormattedSimplifiedAddress string `json:"formatted_simplified_address"`
	Status                     string `json:"status"`
}

// Found reports whether the lookup matched an official address
func (r *SearchResult) Found() bool {
	return r.Status == StatusSuccess
}
