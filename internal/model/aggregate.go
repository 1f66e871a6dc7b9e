package model

// ComponentVersion is one aggregated component version and its raw files.
type ComponentVersion struct {
	Name           string
	Version        string
	Title          string
	DisplayVersion string
	Prerelease     bool
	StartPage      string
	Nav            []string
	Files          []*File
}

// Aggregate is the ordered output of content aggregation.
type Aggregate []*ComponentVersion

// FileCount returns the total number of files across all component versions.
func (a Aggregate) FileCount() int {
	n := 0
	for _, cv := range a {
		n += len(cv.Files)
	}
	return n
}
