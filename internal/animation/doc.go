// Package animation talks to the external portrait animation API.
//
// Client builds the multipart form (face image plus the fixed LivePortrait
// parameters), attaches the API key header, and bounds the call with a
// deadline. Every upstream response passes through ParseResponse, which
// accepts JSON bodies carrying a media URL under several common keys and
// treats any other body as the rendered media itself. The result is an
// Outcome tagged Success, Timeout, or Failure.
package animation
