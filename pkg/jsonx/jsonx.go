// Package jsonx provides JSON serialization for the connector with pooled
// buffers, built on goccy/go-json.
package jsonx

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 { // Don't pool very large buffers
		return
	}
	bufferPool.Put(buf)
}

// Marshal is a drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// MarshalIndent is a drop-in replacement for json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// Unmarshal is a drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// Decode reads all of r and unmarshals the payload into v using a pooled
// buffer. Used for decoding API response bodies.
func Decode(r io.Reader, v interface{}) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	if _, err := io.Copy(buf, r); err != nil {
		return err
	}
	return gojson.Unmarshal(buf.Bytes(), v)
}

// EncodeTo marshals v directly to a writer without HTML escaping. A trailing
// newline is written, matching encoding/json.Encoder semantics.
func EncodeTo(w io.Writer, v interface{}) error {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
