package models

import (
	"time"
)

// ScanRecord is a stored, successful analysis
type ScanRecord struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ObjectName      string    `json:"object_name"`
	Material        string    `json:"material"`
	EstimatedWeight float64   `json:"estimated_weight_g"` // grams
	CarbonFootprint float64   `json:"carbonFootprint"`
	FootprintUnit   string    `json:"footprint_unit"`
	AltName         string    `json:"altName"`
	ImageType       string    `json:"image_type"`
	ImageData       []byte    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}
