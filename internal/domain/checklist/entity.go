package checklist

// PreRunCheck is one item on the pre-run checklist for a period.
// Initiation refuses to run while any check is unresolved; an empty
// list permits proceeding.
type PreRunCheck struct {
	ID          string
	Period      string
	Description string
	Resolved    bool
}
