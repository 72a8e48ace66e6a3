// Package http provides RoundTrippers shared by the outgoing HTTP clients:
// debug request/response logging and User-Agent injection.
// NewTransport chains them in the order the clients expect.
package http
