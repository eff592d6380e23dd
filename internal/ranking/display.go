package ranking

// Display is how a rendering surface presents a single result.
type Display string

const (
	DisplayExpanded  Display = "expanded"
	DisplayCollapsed Display = "collapsed"
	DisplayOverflow  Display = "overflow"
)

// Absolute display thresholds. They only drive presentation; band
// membership is decided by rank.
const (
	ExpandedThreshold  = 0.8
	CollapsedThreshold = 0.6
)

// DisplayFor returns the presentation for a confidence value.
func DisplayFor(confidence float64) Display {
	switch {
	case confidence >= ExpandedThreshold:
		return DisplayExpanded
	case confidence >= CollapsedThreshold:
		return DisplayCollapsed
	default:
		return DisplayOverflow
	}
}
