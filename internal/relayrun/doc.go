// Package relayrun hosts the serve command runtime: it validates upstream
// settings, builds the logger, takes the artifact directory lock, purges and
// prunes artifacts, and runs the relay until a signal arrives.
package relayrun
