package animation

import (
	"mime/multipart"
	"strconv"
)

// DefaultDrivingVideo is the motion template every portrait is animated with.
const DefaultDrivingVideo = "https://segmind-sd-models.s3.amazonaws.com/display_images/liveportrait-video.mp4"

// Params holds the fixed animation fields sent alongside the face image.
type Params struct {
	DrivingVideo       string
	DSize              int
	Scale              float64
	FrameLoadCap       int
	LipZero            bool
	Relative           bool
	VerticalRatio      float64
	Stitching          bool
	SelectEveryNFrames int
}

// DefaultParams returns the parameter set used for every generation.
func DefaultParams() Params {
	return Params{
		DrivingVideo:       DefaultDrivingVideo,
		DSize:              512,
		Scale:              2.3,
		FrameLoadCap:       128,
		LipZero:            true,
		Relative:           true,
		VerticalRatio:      -0.12,
		Stitching:          true,
		SelectEveryNFrames: 1,
	}
}

// Fields returns the form fields in submission order.
func (p Params) Fields() [][2]string {
	return [][2]string{
		{"driving_video", p.DrivingVideo},
		{"live_portrait_dsize", strconv.Itoa(p.DSize)},
		{"live_portrait_scale", formatFloat(p.Scale)},
		{"video_frame_load_cap", strconv.Itoa(p.FrameLoadCap)},
		{"live_portrait_lip_zero", strconv.FormatBool(p.LipZero)},
		{"live_portrait_relative", strconv.FormatBool(p.Relative)},
		{"live_portrait_vy_ratio", formatFloat(p.VerticalRatio)},
		{"live_portrait_stitching", strconv.FormatBool(p.Stitching)},
		{"video_select_every_n_frames", strconv.Itoa(p.SelectEveryNFrames)},
	}
}

func (p Params) writeTo(w *multipart.Writer) error {
	for _, field := range p.Fields() {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
