// Package relay serves the HTTP API that accepts a base64 face image,
// forwards it to the animation service, and answers with a GIF URL.
//
// Routes:
//   - POST /api/generate-gif validates the image, calls the Generator, and maps
//     its outcome to 200, 400, 413, 500, or 504 responses.
//   - GET /artifacts/:name serves binary output parked in the artifact store.
//   - GET /api/health reports liveness.
//
// Every request gets an X-Request-ID, CORS headers for the configured web
// origin, and an access log line.
package relay
