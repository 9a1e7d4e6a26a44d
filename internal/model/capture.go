package model

import "time"

// Capture represents a recorded capture-and-classify run.
type Capture struct {
	ID            string      `json:"id"`
	CapturedAt    time.Time   `json:"captured_at"`
	ArtifactKey   string      `json:"artifact_key,omitempty"`
	ArtifactURL   string      `json:"artifact_url,omitempty"`
	PublishError  string      `json:"publish_error,omitempty"`
	ClassifyError string      `json:"classify_error,omitempty"`
	Detections    []Detection `json:"detections"`
}

// Published reports whether the captured image reached the blob store.
func (c *Capture) Published() bool {
	return c.ArtifactURL != ""
}
