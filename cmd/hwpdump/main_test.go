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

package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/novatechflow/hwpscale/pkg/diag"
	"github.com/novatechflow/hwpscale/pkg/hwp"
	"github.com/novatechflow/hwpscale/pkg/record"
	"github.com/novatechflow/hwpscale/pkg/schema"
	"github.com/novatechflow/hwpscale/pkg/storage"
)

func writeFixture(t *testing.T, dir string) {
	t.Helper()
	var section bytes.Buffer
	header := make([]byte, 24)
	binary.LittleEndian.PutUint32(header, 6|0x80000000)
	if err := record.WriteRecord(&section, hwp.TagParaHeader, 0, header); err != nil {
		t.Fatalf("write record: %v", err)
	}
	text := make([]byte, 0, 12)
	for _, r := range "hello" {
		text = binary.LittleEndian.AppendUint16(text, uint16(r))
	}
	text = binary.LittleEndian.AppendUint16(text, hwp.CtrlParaBreak)
	if err := record.WriteRecord(&section, hwp.TagParaText, 1, text); err != nil {
		t.Fatalf("write record: %v", err)
	}
	files := map[string][]byte{
		"FileHeader":        hwp.EncodeFileHeader(schema.V(5, 0, 3, 2), 0),
		"DocInfo":           nil,
		"BodyText/Section0": section.Bytes(),
	}
	if err := os.MkdirAll(filepath.Join(dir, "BodyText"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestRunPrintsText(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"-text", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v (stderr %s)", err, stderr.String())
	}
	if stdout.String() != "hello\n" {
		t.Fatalf("unexpected text %q", stdout.String())
	}
}

func TestRunPrintsJSON(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	var out struct {
		Version  string           `json:"version"`
		Sections []map[string]any `json:"sections"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if out.Version != "5.0.3.2" || len(out.Sections) != 1 {
		t.Fatalf("unexpected output: %+v", out)
	}
	if out.Sections[0]["name"] != "BodyText/Section0" {
		t.Fatalf("unexpected section name %v", out.Sections[0]["name"])
	}
}

func TestRunDumpsRecordTree(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)
	var extra bytes.Buffer
	if err := record.WriteRecord(&extra, 1000, 0, []byte{1, 2, 3}); err != nil {
		t.Fatalf("write record: %v", err)
	}
	if err := record.WriteRecord(&extra, hwp.TagParaHeader, 0, []byte{1, 2}); err != nil {
		t.Fatalf("write record: %v", err)
	}
	path := filepath.Join(dir, "BodyText", "Section0")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open section: %v", err)
	}
	if _, err := f.Write(extra.Bytes()); err != nil {
		t.Fatalf("append section: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close section: %v", err)
	}

	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"-dump", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v (stderr %s)", err, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{
		"DocInfo\n",
		"BodyText/Section0\n",
		"  ParaHeader #0 {",
		"    ParaText #1 {",
		"  tag_1000 #2 opaque (3 bytes)",
		"  PARA_HEADER #3 undecoded (2 bytes)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("dump missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "ParaHeader #0") > strings.Index(out, "tag_1000 #2") {
		t.Fatalf("dump lost record order:\n%s", out)
	}
}

func TestRunRejectsMissingDocument(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{t.TempDir()}, &stdout, &stderr)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type recordingPutter struct {
	names []string
}

func (p *recordingPutter) Put(ctx context.Context, name string, body []byte) error {
	p.names = append(p.names, name)
	return nil
}

func TestCopyStreams(t *testing.T) {
	src := storage.NewMemoryContainer()
	src.Put("FileHeader", []byte("h"))
	src.Put("BodyText/Section0", []byte("s"))
	dst := &recordingPutter{}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	if err := copyStreams(context.Background(), src, dst, logger); err != nil {
		t.Fatalf("copyStreams: %v", err)
	}
	if strings.Join(dst.names, ",") != "BodyText/Section0,FileHeader" {
		t.Fatalf("unexpected staged streams %v", dst.names)
	}
}

func TestWriteDiagnosticsPlain(t *testing.T) {
	var buf bytes.Buffer
	d := (&diag.Error{Kind: diag.DispatchUnresolved, Err: diag.ErrUnresolved}).WithRecord("DocInfo", 3, 99)
	writeDiagnostics(&buf, []*diag.Error{d}, false)
	if !strings.HasPrefix(buf.String(), "dispatch_unresolved stream=DocInfo record=3 tag=99") {
		t.Fatalf("unexpected trace %q", buf.String())
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "error")
	logger.Warn("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected warn to be filtered at error level")
	}
	logger.Error("shown")
	if !strings.Contains(buf.String(), `"component":"hwpdump"`) {
		t.Fatalf("expected component attribute: %s", buf.String())
	}
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	healthHandler(nil)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}

	h := storage.NewHealth(storage.HealthConfig{})
	for i := 0; i < 5; i++ {
		h.Record(time.Millisecond, errors.New("down"))
	}
	rec = httptest.NewRecorder()
	healthHandler(h)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable || !strings.HasPrefix(rec.Body.String(), "unavailable") {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}
