package types

// Index is what the host needs from a parsed .lwi file: one timecode per frame
// in presentation order, and the positions of the keyframes in that order.
type Index struct {
	Timecodes []int64 `json:"timecodes" yaml:"timecodes"`
	Keyframes []int   `json:"keyframes" yaml:"keyframes"`
}

// Clip is an opened video as seen by the frame server.
type Clip struct {
	Path      string `json:"path" yaml:"path"`
	IndexFile string `json:"index_file,omitempty" yaml:"index_file,omitempty"`
	NumFrames int    `json:"num_frames" yaml:"num_frames"`
	Width     int    `json:"width" yaml:"width"`
	Height    int    `json:"height" yaml:"height"`
}

// Detector names a scene-change detection backend.
type Detector string

const (
	DetectorWWXD   Detector = "wwxd"
	DetectorScxvid Detector = "scxvid"
)

// DetectOptions controls keyframe detection on a clip.
type DetectOptions struct {
	Detector     Detector
	ResizeWidth  int
	ResizeHeight int
	// Threshold overrides the backend's scene-change threshold when > 0.
	Threshold float64
}

// IndexResult is printed by the parse and index commands.
type IndexResult struct {
	Clip  *Clip `json:"clip,omitempty" yaml:"clip,omitempty"`
	Index Index `json:"index" yaml:"index"`
}
