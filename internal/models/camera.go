package models

// VideoInfo describes one scannable source video. Camera and location
// are inferred from the filename and stay nil when it does not follow
// the <cameraId>_<location>_<rest> convention.
type VideoInfo struct {
	ID        string  `json:"id"`
	File      string  `json:"file"`
	CameraID  *string `json:"cameraId"`
	Location  *string `json:"location"`
	Thumbnail *string `json:"thumbnail"`
}

// CameraRecord is an entry of the backend's internal camera directory
type CameraRecord struct {
	CameraID  string `json:"cameraId"`
	Location  string `json:"location"`
	DemoVideo string `json:"demoVideo,omitempty"`
}
