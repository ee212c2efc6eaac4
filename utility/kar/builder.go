// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/pierrec/lz4"
)

// NewBuilder creates a new Builder. Do not fill the Index in
// the header, it will be overwritten anyway.
func NewBuilder(header Header) (*Builder, error) {
	temp, err := ioutil.TempDir("", "karBuilder")
	if err != nil {
		return nil, ErrTempFail
	}
	builder := &Builder{
		tempDir: temp,
		header:  header,
	}
	// TODO: Not sure if this is a good place to clean up.
	// Measure if GC will take a hit later.
	runtime.SetFinalizer(builder, func(builder *Builder) {
		os.RemoveAll(builder.tempDir)
	})
	return builder, nil
}

type tempFile struct {

	// Name is the actual name of the file
	Name string

	// TempName is the temporary name given by the Builder
	TempName string

	// Size in uncompressed state
	Size int64

	Compressed int64
}

// Builder is the high level builder for the archive format.
// Arhives are versioned and cannot be appended to, This Builder
// is the way to create an archive. Whenever Add is called, KarBuilder
// will create a temporary dir, where it will store compressed files,
// then finally bundling them togeter and writing them out with WriteTo.
type Builder struct {
	io.WriterTo

	tempDir string
	header  Header

	nextTemp int64

	mutex sync.Mutex
	files []tempFile
}

// Add compresses and stages data from r under a given name.
// Will block until lz4 finishes compression. Is safe
// to use concurrently in different goroutines.
func (b *Builder) Add(name string, r io.Reader) error {
	tempName := strconv.FormatInt(atomic.AddInt64(&b.nextTemp, 1), 10)
	f, err := os.Create(filepath.Join(b.tempDir, tempName))
	if err != nil {
		return ErrTempFail
	}
	defer f.Close()
	writer := lz4.NewWriter(f)
	written, err := io.Copy(writer, r)
	if err != nil {
		return ErrIOMisc
	}
	if err := writer.Close(); err != nil {
		return ErrIOMisc
	}
	if err := f.Sync(); err != nil {
		return ErrTempFail
	}
	info, err := f.Stat()
	if err != nil {
		return ErrTempFail
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.files = append(b.files, tempFile{
		Name:       name,
		TempName:   tempName,
		Size:       written,
		Compressed: info.Size(),
	})
	return nil
}

// WriteTo bundles and writes all of the files added to the Builder
// into a kar archive that is ready to use.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	header := b.header
	header.Index = nil
	for _, v := range b.files {
		header.Index = append(header.Index, IndexEntry{
			Name:           v.Name,
			Size:           v.Size,
			CompressedSize: v.Compressed,
		})
	}

	headerSpace := header.MaxExpectedSize()
	offset := int64(MagicLength+HeaderSizeNumberLength) + headerSpace
	for idx := range header.Index {
		header.Index[idx].Offset = offset
		offset += header.Index[idx].CompressedSize
	}

	rawHeader, err := gobEncode(header)
	if err != nil {
		return 0, err
	}
	if int64(len(rawHeader)) > headerSpace {
		return 0, ErrFileFormat
	}

	var written int64
	for _, chunk := range [][]byte{
		[]byte(magic),
		int64ToBinary(int64(len(rawHeader))),
		rawHeader,
		make([]byte, headerSpace-int64(len(rawHeader))),
	} {
		num, err := w.Write(chunk)
		written += int64(num)
		if err != nil {
			return written, err
		}
	}

	for _, v := range b.files {
		f, err := os.Open(filepath.Join(b.tempDir, v.TempName))
		if err != nil {
			return written, ErrTempFail
		}
		copied, err := io.Copy(w, f)
		f.Close()
		written += copied
		if err != nil {
			return written, err
		}
	}

	b.files = b.files[:0]
	return written, nil
}
