// Package imagedata parses and builds the MIME-prefixed base64 strings that
// carry a face photo from the capture UI to the relay.
package imagedata
