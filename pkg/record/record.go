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
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/novatechflow/hwpscale/pkg/diag"
)

const (
	tagBits   = 10
	levelBits = 10
	sizeBits  = 12

	tagMask   = 1<<tagBits - 1
	levelMask = 1<<levelBits - 1
	// SizeExtended in the header's size bits means a 4-byte size follows.
	SizeExtended = 1<<sizeBits - 1

	MaxTag   = tagMask
	MaxLevel = levelMask
)

var (
	ErrTruncatedHeader  = errors.New("truncated record header")
	ErrTruncatedPayload = errors.New("truncated record payload")
)

// Record is one tagged, leveled, length-delimited chunk of a stream.
type Record struct {
	Tag     uint32
	Level   uint16
	Payload []byte
	Seq     uint32
	// Offset is the stream position of the record header.
	Offset int64
}

func (r *Record) String() string {
	return fmt.Sprintf("record#%d tag=%d level=%d size=%d", r.Seq, r.Tag, r.Level, len(r.Payload))
}

// Reader decodes a byte stream into records, one per Next call.
type Reader struct {
	r      io.Reader
	seq    uint32
	offset int64
	err    error
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Offset returns the number of bytes consumed so far.
func (rd *Reader) Offset() int64 { return rd.offset }

// Next returns the next record, io.EOF at a clean end of stream, or a
// *diag.Error of kind StreamTruncated. Once it fails every later call returns
// the same error.
func (rd *Reader) Next() (*Record, error) {
	if rd.err != nil {
		return nil, rd.err
	}
	rec, err := rd.next()
	if err != nil {
		rd.err = err
		return nil, err
	}
	return rec, nil
}

func (rd *Reader) next() (*Record, error) {
	start := rd.offset
	var headerBuf [4]byte
	n, err := io.ReadFull(rd.r, headerBuf[:])
	rd.offset += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, rd.truncated(ErrTruncatedHeader, start, err)
	}
	header := binary.LittleEndian.Uint32(headerBuf[:])
	tag := header & tagMask
	level := uint16((header >> tagBits) & levelMask)
	size := header >> (tagBits + levelBits)
	if size == SizeExtended {
		var sizeBuf [4]byte
		n, err := io.ReadFull(rd.r, sizeBuf[:])
		rd.offset += int64(n)
		if err != nil {
			return nil, rd.truncated(ErrTruncatedHeader, start, err)
		}
		size = binary.LittleEndian.Uint32(sizeBuf[:])
	}

	payload, n, err := readPayload(rd.r, size)
	rd.offset += int64(n)
	if err != nil {
		return nil, rd.truncated(ErrTruncatedPayload, start, fmt.Errorf("need %d bytes have %d: %w", size, n, err))
	}
	rec := &Record{
		Tag:     tag,
		Level:   level,
		Payload: payload,
		Seq:     rd.seq,
		Offset:  start,
	}
	rd.seq++
	return rec, nil
}

// payloadChunk caps the up-front allocation for one record. Larger payloads
// grow only as bytes arrive, so a forged size cannot reserve gigabytes.
const payloadChunk = 64 << 10

func readPayload(r io.Reader, size uint32) ([]byte, int, error) {
	if size <= payloadChunk {
		buf := make([]byte, size)
		n, err := io.ReadFull(r, buf)
		return buf, n, err
	}
	var buf bytes.Buffer
	buf.Grow(payloadChunk)
	n, err := io.CopyN(&buf, r, int64(size))
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return buf.Bytes(), int(n), err
}

func (rd *Reader) truncated(kind error, start int64, cause error) error {
	de := diag.New(diag.StreamTruncated, fmt.Errorf("%w at stream offset %d: %v", kind, start, cause))
	de.Seq = rd.seq
	de.Offset = int(rd.offset - start)
	return de
}

// WriteRecord writes a record header followed by payload to w.
func WriteRecord(w io.Writer, tag uint32, level uint16, payload []byte) error {
	if tag > MaxTag {
		return fmt.Errorf("tag %d exceeds %d", tag, MaxTag)
	}
	if level > MaxLevel {
		return fmt.Errorf("level %d exceeds %d", level, MaxLevel)
	}
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return fmt.Errorf("payload too large: %d", len(payload))
	}
	size := uint32(len(payload))
	var buf [8]byte
	n := 4
	if size >= SizeExtended {
		binary.LittleEndian.PutUint32(buf[:4], tag|uint32(level)<<tagBits|SizeExtended<<(tagBits+levelBits))
		binary.LittleEndian.PutUint32(buf[4:], size)
		n = 8
	} else {
		binary.LittleEndian.PutUint32(buf[:4], tag|uint32(level)<<tagBits|size<<(tagBits+levelBits))
	}
	if _, err := w.Write(buf[:n]); err != nil {
		return fmt.Errorf("write record header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write record payload: %w", err)
	}
	return nil
}
