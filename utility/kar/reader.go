// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"io"
	"io/ioutil"
	"strings"

	"github.com/pierrec/lz4"
)

// Open opens the kar archive from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect. The reader is retained for later reads,
// a memory mapped file works best.
func Open(r io.ReaderAt) (*Archive, error) {
	ar := Archive{
		reader: r,
		index:  make(map[string]IndexEntry),
	}

	magicBytes := make([]byte, MagicLength)
	if num, err := r.ReadAt(magicBytes, 0); num < MagicLength {
		if err != nil {
			return nil, err
		}
		return nil, ErrFileFormat
	} else if strings.Compare(string(magicBytes), magic) != 0 {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if num, err := r.ReadAt(headerSizeBytes, MagicLength); num < HeaderSizeNumberLength {
		if err != nil {
			return nil, err
		}
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToint64(headerSizeBytes)
	if err != nil || headerSize <= 0 {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); int64(num) < headerSize {
		if err != nil {
			return nil, err
		}
		return nil, ErrFileFormat
	}

	if err := gobDecode(&ar.header, headerBytes); err != nil {
		return nil, ErrFileFormat
	}

	for _, entry := range ar.header.Index {
		ar.index[entry.Name] = entry
	}
	return &ar, nil
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader io.ReaderAt
	header Header
	index  map[string]IndexEntry
}

// Index lists the names of all files in the archive
// in the order they were added
func (a *Archive) Index() []string {
	names := make([]string, 0, len(a.header.Index))
	for _, entry := range a.header.Index {
		names = append(names, entry.Name)
	}
	return names
}

// Entries lists the file index of the archive
// in the order the files were added
func (a *Archive) Entries() []IndexEntry {
	entries := make([]IndexEntry, len(a.header.Index))
	copy(entries, a.header.Index)
	return entries
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	entry, ok := a.index[name]
	if !ok {
		return nil, ErrNotExist
	}
	section := io.NewSectionReader(a.reader, entry.Offset, entry.CompressedSize)
	contents, err := ioutil.ReadAll(lz4.NewReader(section))
	if err != nil {
		return nil, err
	}
	return contents, nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	entry, ok := a.index[name]
	if !ok {
		return nil, ErrNotExist
	}
	section := io.NewSectionReader(a.reader, entry.Offset, entry.CompressedSize)
	return &Reader{
		Reader: lz4.NewReader(section),
	}, nil
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
// Read returns already decompressed data.
type Reader struct {
	io.Reader
}
