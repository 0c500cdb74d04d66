// SPDX-License-Identifier: MIT

package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Member describes one array stored in a .npz archive.
type Member struct {
	Name  string
	Dtype string // numpy descr, e.g. "<f8"
	Shape []int
}

// Frames returns the leading dimension, or 1 for a scalar array.
func (m Member) Frames() int {
	if len(m.Shape) == 0 {
		return 1
	}
	return m.Shape[0]
}

const npyMagic = "\x93NUMPY"

// Inspect reads the member names and array headers of a .npz archive without
// loading array data. A .npz file is a zip archive whose members are .npy
// files; each .npy file starts with a fixed magic, a version, and a Python
// literal header carrying dtype and shape.
func Inspect(path string) ([]Member, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open npz archive: %w", err)
	}
	defer func() { _ = r.Close() }()

	members := make([]Member, 0, len(r.File))
	for _, f := range r.File {
		name := strings.TrimSuffix(f.Name, ".npy")

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open member %s: %w", f.Name, err)
		}
		m, err := readNpyHeader(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", f.Name, err)
		}
		m.Name = name
		members = append(members, m)
	}

	return members, nil
}

func readNpyHeader(r io.Reader) (Member, error) {
	pre := make([]byte, 8)
	if _, err := io.ReadFull(r, pre); err != nil {
		return Member{}, fmt.Errorf("read npy preamble: %w", err)
	}
	if !bytes.Equal(pre[:6], []byte(npyMagic)) {
		return Member{}, fmt.Errorf("not an npy file (bad magic)")
	}

	major := pre[6]
	var headerLen int
	switch major {
	case 1:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return Member{}, fmt.Errorf("read header length: %w", err)
		}
		headerLen = int(n)
	case 2, 3:
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return Member{}, fmt.Errorf("read header length: %w", err)
		}
		headerLen = int(n)
	default:
		return Member{}, fmt.Errorf("unsupported npy format version %d", major)
	}

	if headerLen <= 0 || headerLen > 1<<20 {
		return Member{}, fmt.Errorf("implausible npy header length %d", headerLen)
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return Member{}, fmt.Errorf("read header: %w", err)
	}

	return parseNpyHeader(string(header))
}

// parseNpyHeader extracts descr and shape from the Python dict literal, e.g.
// {'descr': '<f8', 'fortran_order': False, 'shape': (4, 21, 3), }
func parseNpyHeader(header string) (Member, error) {
	descr, err := headerString(header, "descr")
	if err != nil {
		return Member{}, err
	}

	shapeRaw, err := headerTuple(header, "shape")
	if err != nil {
		return Member{}, err
	}
	shape := make([]int, 0, 3)
	for _, part := range strings.Split(shapeRaw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return Member{}, fmt.Errorf("invalid shape element %q: %w", part, err)
		}
		if n < 0 {
			return Member{}, fmt.Errorf("negative shape element %d", n)
		}
		shape = append(shape, n)
	}

	return Member{Dtype: descr, Shape: shape}, nil
}

func headerString(header, key string) (string, error) {
	idx := strings.Index(header, "'"+key+"'")
	if idx < 0 {
		return "", fmt.Errorf("npy header missing %q", key)
	}
	rest := header[idx+len(key)+2:]
	start := strings.IndexByte(rest, '\'')
	if start < 0 {
		return "", fmt.Errorf("npy header %q: missing value", key)
	}
	end := strings.IndexByte(rest[start+1:], '\'')
	if end < 0 {
		return "", fmt.Errorf("npy header %q: unterminated value", key)
	}
	return rest[start+1 : start+1+end], nil
}

func headerTuple(header, key string) (string, error) {
	idx := strings.Index(header, "'"+key+"'")
	if idx < 0 {
		return "", fmt.Errorf("npy header missing %q", key)
	}
	rest := header[idx:]
	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return "", fmt.Errorf("npy header %q: missing tuple", key)
	}
	closing := strings.IndexByte(rest[open:], ')')
	if closing < 0 {
		return "", fmt.Errorf("npy header %q: unterminated tuple", key)
	}
	return rest[open+1 : open+closing], nil
}

// CheckArchive cross-checks a key_mapping against the arrays actually stored
// in a .npz file: every raw source must exist, per-frame fields must agree on
// the leading frame dimension, and the requested split must fit.
func CheckArchive(path string, mapping KeyMapping, fixedFields []string, nTrain, nVal int) error {
	members, err := Inspect(path)
	if err != nil {
		return err
	}

	byName := make(map[string]Member, len(members))
	for _, m := range members {
		byName[m.Name] = m
	}

	fixed := map[string]struct{}{}
	for _, name := range fixedFields {
		fixed[name] = struct{}{}
	}

	frames := -1
	framesFrom := ""
	for raw, target := range mapping {
		m, ok := byName[raw]
		if !ok {
			return fmt.Errorf("key_mapping source %q not found in %s (archive has: %v)",
				raw, path, memberNames(members))
		}
		if _, isFixed := fixed[target]; isFixed {
			continue
		}
		if frames == -1 {
			frames = m.Frames()
			framesFrom = raw
			continue
		}
		if m.Frames() != frames {
			return fmt.Errorf("inconsistent frame counts: %q has %d frames, %q has %d",
				framesFrom, frames, raw, m.Frames())
		}
	}

	if frames >= 0 && nTrain+nVal > frames {
		return fmt.Errorf("n_train + n_val = %d exceeds the %d frames in %s",
			nTrain+nVal, frames, path)
	}

	return nil
}

func memberNames(members []Member) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}
