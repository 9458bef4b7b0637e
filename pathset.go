// SPDX-License-Identifier: Apache-2.0

package filedialog

import (
	"bytes"
	"fmt"
	"path"

	"github.com/godbus/dbus/v5"

	"github.com/akihiro/portal-filedialog/internal/uri"
)

// PathSet is a lazy view over a retained multi-select response. Paths are
// decoded on access; the backing signal is held for the lifetime of the
// view.
type PathSet struct {
	sig  *dbus.Signal
	uris []string
}

// Count returns the number of selected paths.
func (s *PathSet) Count() int {
	return len(s.uris)
}

// Path decodes the path at index, freshly on every call.
func (s *PathSet) Path(index int) (string, error) {
	if index < 0 || index >= len(s.uris) {
		return "", fmt.Errorf("path set index %d out of bounds (%d paths)", index, len(s.uris))
	}
	return uri.DecodePath(s.uris[index])
}

// Cursor returns a streaming view positioned before the first path.
func (s *PathSet) Cursor() *Cursor {
	return &Cursor{uris: s.uris}
}

// Cursor iterates a PathSet in the bufio.Scanner style:
//
//	for cur.Next() {
//		use(cur.Path())
//	}
//	if err := cur.Err(); err != nil { … }
type Cursor struct {
	uris []string
	pos  int
	path string
	err  error
}

// Next advances to the next path. It returns false at the end of the set or
// on the first decode failure; Err distinguishes the two.
func (c *Cursor) Next() bool {
	if c.err != nil || c.pos >= len(c.uris) {
		return false
	}
	p, err := uri.DecodePath(c.uris[c.pos])
	c.pos++
	if err != nil {
		c.err = err
		return false
	}
	c.path = p
	return true
}

// Path returns the path decoded by the last successful Next.
func (c *Cursor) Path() string { return c.path }

// Err returns the decode failure that stopped the cursor, if any.
func (c *Cursor) Err() error { return c.err }

// PackStrings encodes records in the flat output format: each record
// followed by a NUL byte, with one additional terminating NUL.
func PackStrings(records []string) []byte {
	var buf bytes.Buffer
	for _, rec := range records {
		buf.WriteString(rec)
		buf.WriteByte(0)
	}
	buf.WriteByte(0)
	return buf.Bytes()
}

// SplitPacked recovers the record sequence from a packed buffer, discarding
// the empty terminator record.
func SplitPacked(buf []byte) []string {
	var records []string
	for len(buf) > 0 {
		i := bytes.IndexByte(buf, 0)
		if i < 0 {
			records = append(records, string(buf))
			break
		}
		if i == 0 {
			break
		}
		records = append(records, string(buf[:i]))
		buf = buf[i+1:]
	}
	return records
}

// packMultiPath decodes a URI list into the packed multi-path buffer. A
// single selection packs as the lone full path; more than one pack as the
// first path's directory followed by the basename of every selection.
func packMultiPath(uris []string) ([]byte, error) {
	if len(uris) == 0 {
		return nil, fmt.Errorf("response signal URI array is empty")
	}
	paths := make([]string, len(uris))
	for i, u := range uris {
		p, err := uri.DecodePath(u)
		if err != nil {
			return nil, err
		}
		paths[i] = p
	}
	if len(paths) == 1 {
		return PackStrings(paths), nil
	}
	records := make([]string, 0, len(paths)+1)
	records = append(records, path.Dir(paths[0]))
	for _, p := range paths {
		records = append(records, path.Base(p))
	}
	return PackStrings(records), nil
}
