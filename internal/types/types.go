package types

// FrameTask represents a single frame handed to the pose worker
type FrameTask struct {
	Index int
	Data  []byte
}

// BodyPart names a skeleton joint as reported by the pose model (COCO order).
type BodyPart string

const (
	Nose          BodyPart = "nose"
	LeftEye       BodyPart = "leftEye"
	RightEye      BodyPart = "rightEye"
	LeftEar       BodyPart = "leftEar"
	RightEar      BodyPart = "rightEar"
	LeftShoulder  BodyPart = "leftShoulder"
	RightShoulder BodyPart = "rightShoulder"
	LeftElbow     BodyPart = "leftElbow"
	RightElbow    BodyPart = "rightElbow"
	LeftWrist     BodyPart = "leftWrist"
	RightWrist    BodyPart = "rightWrist"
	LeftHip       BodyPart = "leftHip"
	RightHip      BodyPart = "rightHip"
	LeftKnee      BodyPart = "leftKnee"
	RightKnee     BodyPart = "rightKnee"
	LeftAnkle     BodyPart = "leftAnkle"
	RightAnkle    BodyPart = "rightAnkle"
)

// BodyParts lists every part in skeleton order.
var BodyParts = []BodyPart{
	Nose, LeftEye, RightEye, LeftEar, RightEar,
	LeftShoulder, RightShoulder, LeftElbow, RightElbow, LeftWrist, RightWrist,
	LeftHip, RightHip, LeftKnee, RightKnee, LeftAnkle, RightAnkle,
}

// Position is a pixel coordinate in the source frame (y grows downward).
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Keypoint matches one entry of the JSON keypoint list coming back from the pose worker
type Keypoint struct {
	Part       BodyPart `json:"part"`
	Position   Position `json:"position"`
	Confidence float64  `json:"score"` // model confidence in [0,1]
}

// PoseResult is the success payload returned by the pose worker for one frame.
type PoseResult struct {
	Keypoints []Keypoint `json:"keypoints"`
	Width     int        `json:"width,omitempty"`
	Height    int        `json:"height,omitempty"`
}

// ErrorResult captures the error object returned by Python on failure
type ErrorResult struct {
	Error string `json:"error"`
}
