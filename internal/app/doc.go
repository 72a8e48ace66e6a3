// Package app wires the configuration, clients and services together
// and implements the serve, inspect and download commands.
package app
