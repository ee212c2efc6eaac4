// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"testing"
	"time"
)

func TestAddAndWrite(t *testing.T) {
	builder, err := NewBuilder(Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		t.Error(err)
	}

	if err := builder.Add("test", bytes.NewReader([]byte("idunvovkjnreovmegihjbrqlkmfrjnb"))); err != nil {
		t.Error(err)
	}
	if err := builder.Add("test2", bytes.NewReader([]byte("idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"))); err != nil {
		t.Error(err)
	}

	if len(builder.files) != 2 {
		t.Error("incorrect number of files present")
	}

	buf := bytes.NewBuffer(make([]byte, 0, 5*1024))
	num, err := builder.WriteTo(buf)
	if err != nil {
		t.Error(err)
	}
	if num == 0 {
		t.Error("nothing was written out")
	}
	t.Logf("written %d \n", num)

	if len(builder.files) != 0 {
		t.Error("files should be drained after a write")
	}
}

func TestHeaderSpaceFitsEncoding(t *testing.T) {
	header := Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
		Index: []IndexEntry{
			{Name: "a", Size: 1, CompressedSize: 1, Offset: 1},
		},
	}
	raw, err := gobEncode(header)
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(raw)) > header.MaxExpectedSize() {
		t.Fatalf("header of %d bytes exceeds the reserved %d bytes", len(raw), header.MaxExpectedSize())
	}

	empty := Header{Author: "devblok"}
	raw, err = gobEncode(empty)
	if err != nil {
		t.Fatal(err)
	}
	if int64(len(raw)) > empty.MaxExpectedSize() {
		t.Fatalf("empty header of %d bytes exceeds the reserved %d bytes", len(raw), empty.MaxExpectedSize())
	}
}
