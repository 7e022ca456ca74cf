package model

// Question is one entry of the quiz catalog. Users answer by picking one of Options,
// keyed by ShortID.
type Question struct {
	ShortID   string
	Text      string
	Options   []string
	SortOrder int
}
