// Package main hosts the gifrelay CLI entrypoint and command graph.
//
// `serve` runs the HTTP relay in front of the animation API. `generate` is the
// terminal capture screen: it takes a photo from a file or a webcam frame,
// submits it to a running relay, and prints the resulting GIF URL. `status`
// and `config` cover health checks and configuration scaffolding.
package main
