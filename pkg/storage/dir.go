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
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// DirContainer reads streams from a directory holding an unpacked document:
// each storage is a subdirectory and each stream a file.
type DirContainer struct {
	root string
	fsys fs.FS
}

func NewDirContainer(root string) (*DirContainer, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open container %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open container %s: not a directory", root)
	}
	return &DirContainer{root: root, fsys: os.DirFS(root)}, nil
}

func (d *DirContainer) Root() string { return d.root }

func (d *DirContainer) List(ctx context.Context) ([]string, error) {
	var out []string
	err := fs.WalkDir(d.fsys, ".", func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.Type().IsRegular() {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list container %s: %w", d.root, err)
	}
	return out, nil
}

func (d *DirContainer) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	clean := path.Clean(filepath.ToSlash(name))
	if !fs.ValidPath(clean) {
		return nil, fmt.Errorf("stream %s: invalid name", name)
	}
	f, err := d.fsys.Open(clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stream %s: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("open stream %s: %w", name, err)
	}
	return f, nil
}
