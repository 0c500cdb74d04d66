// SPDX-License-Identifier: MIT
package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeNpy emits a minimal npy v1.0 array with the given dtype and shape.
// The payload size does not matter for header inspection.
func writeNpy(t *testing.T, w *zip.Writer, name, dtype string, shape []int) {
	t.Helper()

	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = fmt.Sprintf("%d", d)
	}
	shapeStr := strings.Join(dims, ", ")
	if len(shape) == 1 {
		shapeStr += ","
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", dtype, shapeStr)
	// Pad so that preamble+header is a multiple of 64, ending in newline.
	total := 8 + 2 + len(header) + 1
	if pad := 64 - total%64; pad != 64 {
		header += strings.Repeat(" ", pad)
	}
	header += "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.WriteByte(1)
	buf.WriteByte(0)
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(header))); err != nil {
		t.Fatalf("write header length: %v", err)
	}
	buf.WriteString(header)
	buf.Write([]byte{0, 0, 0, 0, 0, 0, 0, 0})

	f, err := w.Create(name + ".npy")
	if err != nil {
		t.Fatalf("create zip member: %v", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		t.Fatalf("write zip member: %v", err)
	}
}

func writeBenzeneNpz(t *testing.T, frames, atoms int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "benzene.npz")
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create npz: %v", err)
	}
	zw := zip.NewWriter(out)
	writeNpy(t, zw, "R", "<f8", []int{frames, atoms, 3})
	writeNpy(t, zw, "F", "<f8", []int{frames, atoms, 3})
	writeNpy(t, zw, "E", "<f8", []int{frames})
	writeNpy(t, zw, "z", "<i8", []int{atoms})
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}
	return path
}

func TestInspect(t *testing.T) {
	path := writeBenzeneNpz(t, 50, 12)

	members, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if len(members) != 4 {
		t.Fatalf("expected 4 members, got %d", len(members))
	}

	byName := map[string]Member{}
	for _, m := range members {
		byName[m.Name] = m
	}

	r, ok := byName["R"]
	if !ok {
		t.Fatalf("missing member R: %v", members)
	}
	if r.Dtype != "<f8" {
		t.Errorf("R dtype = %q", r.Dtype)
	}
	if len(r.Shape) != 3 || r.Shape[0] != 50 || r.Shape[1] != 12 || r.Shape[2] != 3 {
		t.Errorf("R shape = %v", r.Shape)
	}
	if r.Frames() != 50 {
		t.Errorf("R frames = %d", r.Frames())
	}

	e := byName["E"]
	if len(e.Shape) != 1 || e.Shape[0] != 50 {
		t.Errorf("E shape = %v", e.Shape)
	}
}

func TestInspectNotAnArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.npz")
	if err := os.WriteFile(path, []byte("not a zip"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Inspect(path); err == nil {
		t.Error("expected error for non-zip input")
	}
}

func TestCheckArchive(t *testing.T) {
	path := writeBenzeneNpz(t, 50, 12)
	mapping := benzeneMapping()
	fixed := []string{"atomic_numbers"}

	if err := CheckArchive(path, mapping, fixed, 40, 10); err != nil {
		t.Errorf("CheckArchive: %v", err)
	}
}

func TestCheckArchiveSplitTooLarge(t *testing.T) {
	path := writeBenzeneNpz(t, 50, 12)
	err := CheckArchive(path, benzeneMapping(), []string{"atomic_numbers"}, 45, 10)
	if err == nil {
		t.Fatal("expected split overflow error")
	}
	if !strings.Contains(err.Error(), "n_train + n_val") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckArchiveMissingSource(t *testing.T) {
	path := writeBenzeneNpz(t, 50, 12)
	mapping := benzeneMapping()
	mapping["cells"] = "cell"
	err := CheckArchive(path, mapping, []string{"atomic_numbers"}, 10, 5)
	if err == nil {
		t.Fatal("expected missing source error")
	}
	if !strings.Contains(err.Error(), "cells") {
		t.Errorf("error should name the missing source: %v", err)
	}
}

func TestCheckArchiveInconsistentFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.npz")
	out, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(out)
	writeNpy(t, zw, "R", "<f8", []int{50, 12, 3})
	writeNpy(t, zw, "F", "<f8", []int{49, 12, 3})
	writeNpy(t, zw, "E", "<f8", []int{50})
	writeNpy(t, zw, "z", "<i8", []int{12})
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	err = CheckArchive(path, benzeneMapping(), []string{"atomic_numbers"}, 10, 5)
	if err == nil {
		t.Fatal("expected inconsistent frame count error")
	}
	if !strings.Contains(err.Error(), "frames") {
		t.Errorf("unexpected error: %v", err)
	}
}
