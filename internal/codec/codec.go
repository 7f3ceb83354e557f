// Package codec converts between client wire protocols and the canonical
// request/response representation. Decoding never consults provider state;
// a codec only knows its own protocol.
package codec

import (
	"fmt"

	"github.com/aistats/gateway/internal/core/domain"
)

// Codec translates one client protocol.
type Codec interface {
	// Name returns the codec name (e.g., "openai.chat", "anthropic.messages").
	Name() string

	// Endpoint returns the endpoint this codec serves.
	Endpoint() domain.Endpoint

	// DecodeRequest converts protocol request JSON to the canonical form.
	DecodeRequest(data []byte) (*domain.ChatRequest, error)

	// EncodeResponse converts a canonical response to protocol response JSON.
	EncodeResponse(resp *domain.ChatResponse) ([]byte, error)
}

// Registry maps endpoints to codecs.
type Registry struct {
	byEndpoint map[domain.Endpoint]Codec
}

// NewRegistry builds a registry from the given codecs. Registering two codecs
// for the same endpoint is a programming error.
func NewRegistry(codecs ...Codec) (*Registry, error) {
	r := &Registry{byEndpoint: make(map[domain.Endpoint]Codec, len(codecs))}
	for _, c := range codecs {
		if existing, ok := r.byEndpoint[c.Endpoint()]; ok {
			return nil, fmt.Errorf("codec %q conflicts with %q on endpoint %q", c.Name(), existing.Name(), c.Endpoint())
		}
		r.byEndpoint[c.Endpoint()] = c
	}
	return r, nil
}

// ForEndpoint returns the codec serving ep.
func (r *Registry) ForEndpoint(ep domain.Endpoint) (Codec, bool) {
	c, ok := r.byEndpoint[ep]
	return c, ok
}
