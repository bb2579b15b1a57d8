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

package hwp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/novatechflow/hwpscale/pkg/schema"
	"github.com/novatechflow/hwpscale/pkg/value"
)

// FileHeaderSize is the fixed size of the FileHeader stream.
const FileHeaderSize = 256

// Signature opens every FileHeader, NUL padded to 32 bytes.
const Signature = "HWP Document File"

var (
	ErrInvalidSignature = errors.New("not an HWP 5 document")
	// ErrDistributed is returned for distribution documents, whose body
	// streams live under ViewText and are encrypted.
	ErrDistributed = errors.New("distribution document not supported")
	ErrPassword    = errors.New("password protected document not supported")
)

var fileHeaderFlags = schema.NewFlags("FileHeaderFlags", schema.U32,
	schema.Bit("compressed", 0),
	schema.Bit("password", 1),
	schema.Bit("distributable", 2),
	schema.Bit("script", 3),
	schema.Bit("drm", 4),
	schema.Bit("xml_template", 5),
	schema.Bit("history", 6),
	schema.Bit("cert_signature", 7),
	schema.Bit("cert_encryption", 8),
	schema.Bit("cert_signature_extra", 9),
	schema.Bit("cert_drm", 10),
	schema.Bit("ccl", 11),
	schema.Bit("mobile", 12),
	schema.Bit("privacy", 13),
	schema.Bit("trackchange", 14),
	schema.Bit("kogl", 15),
	schema.Bit("has_video", 16),
)

var licenseFlags = schema.NewFlags("LicenseFlags", schema.U32,
	schema.Bit("ccl", 0),
	schema.Bit("copy_limit", 1),
	schema.Bit("copy_same", 2),
)

var koglCountry = schema.NewEnum("KOGLCountry", schema.U8, []schema.EnumItem{
	{Name: "none", Code: 0},
	{Name: "kor", Code: 6},
	{Name: "us", Code: 15},
}...)

var fileHeaderSchema = schema.NewStruct("FileHeader",
	schema.F("signature", schema.Bytes(32)),
	schema.F("version", schema.U32),
	schema.F("flags", fileHeaderFlags),
	schema.F("license", licenseFlags),
	schema.F("encrypt_version", schema.U32),
	schema.F("kogl_country", koglCountry),
	schema.F("reserved", schema.Bytes(FileHeaderSize-49)),
)

// FileHeader is the decoded FileHeader stream.
type FileHeader struct {
	Version schema.Version
	Flags   schema.FlagsValue
	License schema.FlagsValue
	// EncryptVersion identifies the password scheme.
	EncryptVersion uint32
	KOGLCountry    schema.EnumValue
	Value          *value.Struct
}

func (h *FileHeader) Compressed() bool    { return h.Flags.Bool("compressed") }
func (h *FileHeader) Password() bool      { return h.Flags.Bool("password") }
func (h *FileHeader) Distributable() bool { return h.Flags.Bool("distributable") }

// ParseFileHeader decodes and validates the FileHeader stream.
func ParseFileHeader(data []byte) (*FileHeader, error) {
	if len(data) < FileHeaderSize {
		return nil, fmt.Errorf("file header: %d bytes: %w", len(data), ErrInvalidSignature)
	}
	if !bytes.Equal(bytes.TrimRight(data[:32], "\x00"), []byte(Signature)) {
		return nil, ErrInvalidSignature
	}
	vals, _, err := schema.Resolve(fileHeaderSchema, nil, data[:FileHeaderSize])
	if err != nil {
		return nil, fmt.Errorf("file header: %w", err)
	}
	h := &FileHeader{Value: vals}
	if v, ok := vals.Int("version"); ok {
		h.Version = schema.VersionFromUint32(uint32(v))
	}
	if v, ok := vals.Lookup("flags"); ok {
		h.Flags, _ = v.(schema.FlagsValue)
	}
	if v, ok := vals.Lookup("license"); ok {
		h.License, _ = v.(schema.FlagsValue)
	}
	if v, ok := vals.Int("encrypt_version"); ok {
		h.EncryptVersion = uint32(v)
	}
	if v, ok := vals.Lookup("kogl_country"); ok {
		h.KOGLCountry, _ = v.(schema.EnumValue)
	}
	return h, nil
}

// EncodeFileHeader builds a FileHeader stream; used to stage documents and
// in tests.
func EncodeFileHeader(v schema.Version, flags uint32) []byte {
	out := make([]byte, FileHeaderSize)
	copy(out, Signature)
	binary.LittleEndian.PutUint32(out[32:], v.Uint32())
	binary.LittleEndian.PutUint32(out[36:], flags)
	return out
}
