package models

// BoundingBox is the detection box in source-frame pixels.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Detection is one model output for a single frame
type Detection struct {
	ClassID    int         `json:"class_id"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"box"`
}

// DetectionFrame is the inference result for one decoded frame
type DetectionFrame struct {
	Index            int         `json:"index"`
	TimestampSeconds float64     `json:"timestamp_seconds"`
	Detections       []Detection `json:"detections"`
}

// AccidentEvent is a detection accepted by the scanner.
type AccidentEvent struct {
	TimeSeconds float64 `json:"time_seconds"`
	Confidence  float64 `json:"confidence"`
	FrameIndex  int     `json:"frame_index"`
}

// MessagePublisher interface for publishing pipeline outcomes
type MessagePublisher interface {
	Publish(subject string, data interface{}) error
}
