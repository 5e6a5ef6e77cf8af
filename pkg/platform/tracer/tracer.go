// Package tracer is a thin span abstraction over OpenTelemetry used around
// outbound calls. Services depend on Tracer so tests can pass NewNoop().
package tracer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Span is an active trace span. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute    { return Attribute{Key: key, Value: value} }
func Bool(key string, value bool) Attribute { return Attribute{Key: key, Value: value} }
func Int(key string, value int) Attribute   { return Attribute{Key: key, Value: value} }

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// HashCedula shortens a SHA-256 of the cedula so traces correlate without
// carrying the identity number.
func HashCedula(cedula string) string {
	if cedula == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(cedula))
	return hex.EncodeToString(sum[:8])
}

const (
	SpanWFSGetFeature = "catastro.wfs.get_feature"
	SpanGeoBatch      = "catastro.geo.batch"
	SpanCedulaLookup  = "identidad.lookup"
	SpanCedulaCall    = "identidad.http.call"
)

const (
	AttrParcela    = "parcela"
	AttrCedula     = "cedula_hash"
	AttrCacheHit   = "cache.hit"
	AttrStale      = "stale"
	AttrBatchSize  = "batch.size"
	AttrHTTPStatus = "http.status_code"
	AttrSource     = "source"
)
