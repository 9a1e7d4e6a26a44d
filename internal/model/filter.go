package model

// CaptureFilter narrows capture log queries.
type CaptureFilter struct {
	Label  string
	Limit  int
	Offset int
}
