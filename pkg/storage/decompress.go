// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/novatechflow/hwpscale/internal/metrics"
)

// Decompress wraps r with a raw deflate (RFC 1951, no zlib header) reader,
// the encoding of compressed document streams.
func Decompress(r io.Reader) io.ReadCloser {
	return flate.NewReader(r)
}

// Inflate decompresses a whole raw deflate stream.
func Inflate(data []byte) ([]byte, error) {
	rc := Decompress(bytes.NewReader(data))
	defer rc.Close()
	out, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	metrics.StreamBytes.WithLabelValues("raw").Add(float64(len(data)))
	metrics.StreamBytes.WithLabelValues("inflated").Add(float64(len(out)))
	return out, nil
}

// Deflate compresses data as a raw deflate stream.
func Deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	return buf.Bytes(), nil
}
