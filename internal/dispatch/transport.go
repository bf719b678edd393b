package dispatch

import "context"

//go:generate mockgen -source=transport.go -destination=mocks/mock_transport.go -package=mocks

// Transport delivers an encoded task document to a provisioner worker and returns the document
// the worker sends back.
type Transport interface {
	RoundTrip(ctx context.Context, doc []byte) ([]byte, error)
}
