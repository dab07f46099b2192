// Package capture models the image capture screen: choosing a photo from disk
// or a camera frame, submitting it for animation, and exposing the resulting
// state (empty, has image, generating, result, error) for rendering.
//
// A Session permits one generation at a time. Camera streams are released as
// soon as a frame is captured or the session is cleared.
package capture
