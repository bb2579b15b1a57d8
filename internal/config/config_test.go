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

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "source:\n  kind: dir\n  path: /data/doc\ndecoder:\n  workers: 8\n  strict: true\nmetrics:\n  addr: \":9100\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Source.Path != "/data/doc" || cfg.Decoder.Workers != 8 || !cfg.Decoder.Strict {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("unexpected metrics addr %q", cfg.Metrics.Addr)
	}
}

func TestLoadDefaultsToS3WhenBucketSet(t *testing.T) {
	path := writeConfig(t, "s3:\n  bucket: docs\n  prefix: reports/q3\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Source.Kind != SourceS3 {
		t.Fatalf("expected s3 source, got %q", cfg.Source.Kind)
	}
	if cfg.S3.Region != "us-east-1" {
		t.Fatalf("expected default region, got %q", cfg.S3.Region)
	}
	if cfg.Decoder.Workers != 4 {
		t.Fatalf("expected default workers 4, got %d", cfg.Decoder.Workers)
	}
	if cfg.Cache.Bytes != 64<<20 {
		t.Fatalf("expected default cache size, got %d", cfg.Cache.Bytes)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("expected default log level warn, got %q", cfg.Log.Level)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "source:\n  kind: dir\n  path: /data/doc\n")
	t.Setenv("HWPSCALE_SOURCE_PATH", "/other")
	t.Setenv("HWPSCALE_WORKERS", "2")
	t.Setenv("HWPSCALE_STRICT", "yes")
	t.Setenv("HWPSCALE_LOG_LEVEL", "debug")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Source.Path != "/other" || cfg.Decoder.Workers != 2 || !cfg.Decoder.Strict || cfg.Log.Level != "debug" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("HWPSCALE_SOURCE_PATH", "/data/doc")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Source.Kind != SourceDir {
		t.Fatalf("expected dir source, got %q", cfg.Source.Kind)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing path":   "source:\n  kind: dir\n",
		"missing bucket": "source:\n  kind: s3\n",
		"bad kind":       "source:\n  kind: ftp\n  path: x\n",
		"bad workers":    "source:\n  path: x\ndecoder:\n  workers: -1\n",
		"bad level":      "source:\n  path: x\nlog:\n  level: loud\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestOverridesApplyAfterEnv(t *testing.T) {
	t.Setenv("HWPSCALE_SOURCE_KIND", "s3")
	cfg, err := Load("", func(c *Config) {
		c.Source.Kind = SourceDir
		c.Source.Path = "/cli"
	})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Source.Kind != SourceDir || cfg.Source.Path != "/cli" {
		t.Fatalf("override not applied: %+v", cfg.Source)
	}
}
