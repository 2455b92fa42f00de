package audit

import "context"

type metadataKey struct{}

// Metadata describes the request an audit entry originated from
type Metadata struct {
	RequestID string
	IPAddress string
	UserAgent string
}

// WithMetadata returns a context carrying request metadata
func WithMetadata(ctx context.Context, meta Metadata) context.Context {
	return context.WithValue(ctx, metadataKey{}, meta)
}

// MetadataFromContext returns the request metadata carried by ctx
func MetadataFromContext(ctx context.Context) (Metadata, bool) {
	meta, ok := ctx.Value(metadataKey{}).(Metadata)
	return meta, ok
}
