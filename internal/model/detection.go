package model

// Box is an axis-aligned bounding box in pixels of the captured still image.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Detection represents one labeled, scored region found in a captured image.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// Labels returns the detection labels in order, duplicates included.
func Labels(detections []Detection) []string {
	labels := make([]string, 0, len(detections))
	for _, d := range detections {
		labels = append(labels, d.Label)
	}
	return labels
}
