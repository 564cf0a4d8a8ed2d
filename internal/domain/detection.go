package domain

// PlaceholderConfidence is reported for every detection; the text-detection
// provider does not return a per-region confidence.
const PlaceholderConfidence = 0.95

// BoundingBox is an axis-aligned rectangle in image pixel coordinates
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DetectedGame is a text region from a shelf photo that may name a game
type DetectedGame struct {
	Title       string       `json:"title"`
	Confidence  float64      `json:"confidence"`
	BoundingBox *BoundingBox `json:"boundingBox,omitempty"`
}

// Vertex is one corner of a provider polygon
type Vertex struct {
	X int
	Y int
}

// TextAnnotation is a raw text region as returned by the OCR provider
type TextAnnotation struct {
	Description string
	Vertices    []Vertex
}

// AnalyzeRequest is the body of an image analysis request
type AnalyzeRequest struct {
	Image string `json:"image"`
}

// AnalyzeResponse is returned by image analysis
type AnalyzeResponse struct {
	DetectedGames []DetectedGame `json:"detectedGames"`
}

// MatchRequest carries detections to resolve against the catalog
type MatchRequest struct {
	DetectedGames []DetectedGame `json:"detectedGames" binding:"required"`
}

// ShelfMatches maps a detected title to its catalog candidates
type ShelfMatches map[string][]BoardGame

// ScanResponse is the combined analyze + match result
type ScanResponse struct {
	DetectedGames []DetectedGame `json:"detectedGames"`
	Matches       ShelfMatches   `json:"matches"`
}
