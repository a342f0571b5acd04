// Copyright 2026 Google LLC
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/files-community/Files-sub019/internal/command"
	"github.com/files-community/Files-sub019/pkg/act/cli"
	"github.com/files-community/Files-sub019/pkg/archive"
	"github.com/files-community/Files-sub019/pkg/archive/archivetest"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func writeArchive(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.zip")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func project(t *testing.T) []byte {
	t.Helper()
	buf, err := archivetest.ZipFile(
		archivetest.File{Name: "src/"},
		archivetest.File{Name: "src/main.go", Body: []byte("package main\n")},
		archivetest.File{Name: "src/main_test.go", Body: []byte("package main_test\n")},
		archivetest.File{Name: "README.md", Body: []byte("# project\n")},
	)
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name             string
		include, exclude []string
		want             []string
		wantOut          string
	}{
		{
			name:    "everything",
			want:    []string{"README.md", "src/main.go", "src/main_test.go"},
			wantOut: "3 files, 1 folders extracted, 0 skipped\n",
		},
		{
			name:    "filtered",
			include: []string{"src/**"},
			exclude: []string{"*_test.go"},
			want:    []string{"src/main.go"},
			wantOut: "1 files, 1 folders extracted, 2 skipped\n",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs := memfs.New()
			var out, errOut bytes.Buffer
			deps := &Deps{FS: fs}
			deps.SetIO(cli.IO{Out: &out, Err: &errOut})
			cfg := Config{
				Backend:  command.Backend{Backend: "builtin"},
				Path:     writeArchive(t, project(t)),
				Out:      "unused",
				Include:  tc.include,
				Exclude:  tc.exclude,
				Progress: true,
			}
			if err := cfg.Validate(); err != nil {
				t.Fatal(err)
			}
			if _, err := Handler(context.Background(), cfg, deps); err != nil {
				t.Fatalf("Handler() error: %v", err)
			}
			if diff := cmp.Diff(tc.wantOut, out.String()); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
			var got []string
			for _, name := range []string{"README.md", "src/main.go", "src/main_test.go"} {
				if _, err := fs.Stat(name); err == nil {
					got = append(got, name)
				}
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("extracted files mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandlerReportsFailures(t *testing.T) {
	buf, err := archivetest.ZipFile(
		archivetest.File{Name: "good.txt", Body: []byte("fine"), Store: true},
		archivetest.File{Name: "bad.txt", Body: []byte("will be damaged"), Store: true},
	)
	if err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	data[bytes.Index(data, []byte("damaged"))] ^= 0xFF
	var out bytes.Buffer
	deps := &Deps{FS: memfs.New()}
	deps.SetIO(cli.IO{Out: &out, Err: &bytes.Buffer{}})
	cfg := Config{Backend: command.Backend{Backend: "builtin"}, Path: writeArchive(t, data), Out: "unused"}
	_, err = Handler(context.Background(), cfg, deps)
	if !errors.Is(err, archive.ErrEntryExtractionFailed) {
		t.Fatalf("Handler() error = %v, want ErrEntryExtractionFailed", err)
	}
	if !strings.Contains(out.String(), "failed bad.txt: crc error") {
		t.Errorf("failure not printed:\n%s", out.String())
	}
	if got, _ := util.ReadFile(deps.FS, "good.txt"); string(got) != "fine" {
		t.Errorf("good.txt = %q", got)
	}
}

func TestHandlerWritesToOut(t *testing.T) {
	dir := t.TempDir()
	deps := &Deps{}
	deps.SetIO(cli.IO{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}})
	cfg := Config{Backend: command.Backend{Backend: "builtin"}, Path: writeArchive(t, project(t)), Out: dir}
	if _, err := Handler(context.Background(), cfg, deps); err != nil {
		t.Fatalf("Handler() error: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "src", "main.go"))
	if err != nil || string(got) != "package main\n" {
		t.Errorf("src/main.go = %q, %v", got, err)
	}
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		cfg  Config
	}{
		{"no archive", Config{Out: "x"}},
		{"no out", Config{Path: "a.zip"}},
		{"bad glob", Config{Path: "a.zip", Out: "x", Include: []string{"a**"}}},
	} {
		if err := tc.cfg.Validate(); err == nil {
			t.Errorf("%s: Validate() succeeded", tc.name)
		}
	}
}
