package formz

// Submission carries a validated item through the submit pipeline.
// Pipeline stages may modify Item before it reaches the catalog.
type Submission struct {
	// Mode decides whether the terminal stage creates or updates.
	Mode Mode

	// ItemID is the identifier of the item being edited; empty in create mode.
	ItemID string

	// Item is the raw value of the form, disabled fields included.
	Item Item
}

// op names the catalog operation the submission performs.
func (s *Submission) op() string {
	if s.Mode == ModeEdit {
		return "update"
	}
	return "create"
}
