// Package relayclient is the HTTP client the generate command uses to reach a
// running relay. Error answers are surfaced as *ResponseError so the capture
// session can show the relay's own message.
package relayclient
