package analysis

import "fmt"

// ClusteringInsufficientDataError reports that a detection run had too
// little usable data. Callers treat it as "no clusters", not a failure.
type ClusteringInsufficientDataError struct {
	Nodes    int
	Required int
	Reason   string
}

func (e *ClusteringInsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for clustering: %s (%d nodes, need %d)",
		e.Reason, e.Nodes, e.Required)
}
