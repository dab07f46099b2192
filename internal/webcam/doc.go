// Package webcam implements capture.Camera on top of ffmpeg's V4L2 input.
package webcam
