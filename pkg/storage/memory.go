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
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// MemoryContainer is an in-memory Container for development/testing.
type MemoryContainer struct {
	mu      sync.Mutex
	streams map[string][]byte
}

// NewMemoryContainer initializes the in-memory container.
func NewMemoryContainer() *MemoryContainer {
	return &MemoryContainer{streams: make(map[string][]byte)}
}

// Put stores a copy of data under name.
func (m *MemoryContainer) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streams[name] = append([]byte(nil), data...)
}

func (m *MemoryContainer) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.streams))
	for name := range m.streams {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryContainer) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.streams[name]
	if !ok {
		return nil, fmt.Errorf("stream %s: %w", name, ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), data...))), nil
}
