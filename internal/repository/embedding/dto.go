package embedding

import (
	"encoding/binary"
	"math"
	"strconv"
	"time"

	domemb "github.com/kailas-cloud/prodex/internal/domain/embedding"
)

const (
	fieldProductID   = "product_id"
	fieldVector      = "vector"
	fieldModel       = "model"
	fieldContentHash = "content_hash"
	fieldCreatedAt   = "created_at"
	fieldDim         = "dim"
)

func buildHashFields(r *domemb.Record) map[string]string {
	m := map[string]string{
		fieldProductID: r.ProductID(),
		fieldVector:    vectorToBytes(r.Vector()),
		fieldModel:     r.ModelVersion(),
		fieldCreatedAt: r.CreatedAt().UTC().Format(time.RFC3339Nano),
		fieldDim:       strconv.Itoa(r.Dim()),
	}
	if h := r.ContentHash(); h != "" {
		m[fieldContentHash] = h
	}
	return m
}

// parseHashFields rebuilds a Record. A vector blob whose length is not a
// multiple of 4 yields a nil vector, which callers treat as missing.
func parseHashFields(id string, m map[string]string) domemb.Record {
	createdAt, _ := time.Parse(time.RFC3339Nano, m[fieldCreatedAt])
	return domemb.Reconstruct(
		id,
		bytesToVector(m[fieldVector]),
		m[fieldModel],
		m[fieldContentHash],
		createdAt,
	)
}

// vectorToBytes serializes []float32 to a little-endian binary string.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
