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

package record

import (
	"bytes"
	"errors"
	"io"
	"runtime"
	"testing"

	"github.com/novatechflow/hwpscale/pkg/diag"
)

func TestReadHeaderBitLayout(t *testing.T) {
	// size=0 level=0 tag=5, then size=2 level=1 tag=66
	data := []byte{
		0x05, 0x00, 0x00, 0x00,
		0x42, 0x04, 0x20, 0x00, 0xaa, 0xbb,
	}
	rd := NewReader(bytes.NewReader(data))

	first, err := rd.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if first.Tag != 5 || first.Level != 0 || len(first.Payload) != 0 || first.Seq != 0 {
		t.Fatalf("unexpected first record: %s", first)
	}
	second, err := rd.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if second.Tag != 66 || second.Level != 1 || !bytes.Equal(second.Payload, []byte{0xaa, 0xbb}) {
		t.Fatalf("unexpected second record: %s", second)
	}
	if second.Seq != 1 || second.Offset != 4 {
		t.Fatalf("unexpected seq/offset: %d/%d", second.Seq, second.Offset)
	}
	if _, err := rd.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF got %v", err)
	}
}

func TestWriteReadRoundTripExtendedSize(t *testing.T) {
	var buf bytes.Buffer
	big := bytes.Repeat([]byte{0x7f}, SizeExtended+10)
	if err := WriteRecord(&buf, 67, 2, big); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	if err := WriteRecord(&buf, 68, 2, []byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	rd := NewReader(&buf)
	rec, err := rd.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.Tag != 67 || rec.Level != 2 || len(rec.Payload) != len(big) {
		t.Fatalf("unexpected record: %s", rec)
	}
	rec, err = rd.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.Tag != 68 || rec.Offset != int64(8+len(big)) {
		t.Fatalf("unexpected record: %s offset=%d", rec, rec.Offset)
	}
}

func TestReadTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "short header", data: []byte{0x05, 0x00}, want: ErrTruncatedHeader},
		{name: "short extended size", data: []byte{0x05, 0x00, 0xf0, 0xff, 0x01}, want: ErrTruncatedHeader},
		{name: "short payload", data: []byte{0x05, 0x00, 0x40, 0x00, 0x01}, want: ErrTruncatedPayload},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rd := NewReader(bytes.NewReader(tc.data))
			_, err := rd.Next()
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v got %v", tc.want, err)
			}
			if diag.KindOf(err) != diag.StreamTruncated {
				t.Fatalf("expected stream_truncated kind, got %v", diag.KindOf(err))
			}
			if _, again := rd.Next(); again != err {
				t.Fatalf("reader must stay failed, got %v", again)
			}
		})
	}
}

func TestReadForgedExtendedSizeDoesNotReserve(t *testing.T) {
	// tag=5 level=0 size=extended, then a declared size of 0x7fffffff and no payload
	data := []byte{0x05, 0x00, 0xf0, 0xff, 0xff, 0xff, 0xff, 0x7f}

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	_, err := NewReader(bytes.NewReader(data)).Next()
	runtime.ReadMemStats(&after)

	if !errors.Is(err, ErrTruncatedPayload) {
		t.Fatalf("expected %v got %v", ErrTruncatedPayload, err)
	}
	if diag.KindOf(err) != diag.StreamTruncated {
		t.Fatalf("expected stream_truncated kind, got %v", diag.KindOf(err))
	}
	if grew := after.TotalAlloc - before.TotalAlloc; grew > 16<<20 {
		t.Fatalf("reading a truncated record allocated %d bytes", grew)
	}
}

func TestReadLargePayloadAcrossChunks(t *testing.T) {
	var buf bytes.Buffer
	big := bytes.Repeat([]byte{0x11, 0x22, 0x33}, payloadChunk)
	if err := WriteRecord(&buf, 67, 1, big); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	rec, err := NewReader(&buf).Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !bytes.Equal(rec.Payload, big) {
		t.Fatalf("payload mismatch: got %d bytes want %d", len(rec.Payload), len(big))
	}
}

func TestWriteRecordRejectsOutOfRange(t *testing.T) {
	if err := WriteRecord(io.Discard, MaxTag+1, 0, nil); err == nil {
		t.Fatalf("expected tag range error")
	}
	if err := WriteRecord(io.Discard, 1, MaxLevel+1, nil); err == nil {
		t.Fatalf("expected level range error")
	}
}
