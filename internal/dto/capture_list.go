package dto

import "inventorycam/internal/model"

// CaptureListQuery describes the query string of the capture log listing.
type CaptureListQuery struct {
	Label string `validate:"omitempty,max=64"`
	Page  int    `validate:"gte=1"`
	Limit int    `validate:"gte=1,lte=100"`
}

// CaptureList is one page of the capture log.
type CaptureList struct {
	Captures []model.Capture `json:"captures"`
	Labels   []string        `json:"labels"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
	Total    int             `json:"total"`
}
