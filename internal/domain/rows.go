package domain

// DisplayRow is one rendered roster slot. Rows are rebuilt on every query.
type DisplayRow struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Metrics   map[string]string `json:"metrics"`
	SortValue float64           `json:"sortValue"`
}

// Slot is a roster position mapped to an id, with an optional display name override.
type Slot struct {
	ID              string
	DisplayOverride string
}
