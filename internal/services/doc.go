// Package services defines shared utilities consumed by the relay, the
// animation client, and the capture front end.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs and matched routes for logging.
//   - Structured error markers plus the Wrap helper, and HTTPStatus which
//     translates marked failures into relay status codes.
//
// Use these helpers when wiring new integrations so error classification and
// log correlation stay uniform across the binary.
package services
