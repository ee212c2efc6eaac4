// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/koru3d/puna/utility/kar"
)

var (
	testString1 = "idunvovkjnreovmegihjbrqlkmfrjnb"
	testString2 = "idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"
)

func TestCreateAndRead(t *testing.T) {
	builder, err := kar.NewBuilder(kar.Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		t.Error(err)
	}
	if err := builder.Add("test", bytes.NewReader([]byte(testString1))); err != nil {
		t.Error(err)
	}
	if err := builder.Add("test2", bytes.NewReader([]byte(testString2))); err != nil {
		t.Error(err)
	}

	buf := bytes.NewBuffer([]byte{})
	if written, err := builder.WriteTo(buf); err != nil {
		t.Error(err)
	} else {
		t.Logf("written %d", written)
	}

	ar, err := kar.Open(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Error(err)
	}

	f, err := ar.Open("test")
	if err != nil {
		t.Error(err)
	}

	result := make([]byte, len(testString1))
	if _, err := io.ReadFull(f, result); err != nil {
		t.Error(err)
	}

	if strings.Compare(string(result), testString1) != 0 {
		t.Error("test string does not match up")
	}
}

func TestCreateAndReadAll(t *testing.T) {
	builder, err := kar.NewBuilder(kar.Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		t.Error(err)
	}
	if err := builder.Add("test", bytes.NewReader([]byte(testString1))); err != nil {
		t.Error(err)
	}
	if err := builder.Add("test2", bytes.NewReader([]byte(testString2))); err != nil {
		t.Error(err)
	}

	buf := bytes.NewBuffer([]byte{})
	if written, err := builder.WriteTo(buf); err != nil {
		t.Error(err)
	} else {
		t.Logf("written %d", written)
	}

	ar, err := kar.Open(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Error(err)
	}

	f, err := ar.ReadAll("test")
	if err != nil {
		t.Error(err)
	}

	if strings.Compare(string(f), testString1) != 0 {
		t.Error("test string does not match up")
	}
}

func TestCreateAndIndex(t *testing.T) {
	builder, err := kar.NewBuilder(kar.Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		t.Error(err)
	}
	if err := builder.Add("test", bytes.NewReader([]byte(testString1))); err != nil {
		t.Error(err)
	}
	if err := builder.Add("test2", bytes.NewReader([]byte(testString2))); err != nil {
		t.Error(err)
	}

	buf := bytes.NewBuffer([]byte{})
	if _, err := builder.WriteTo(buf); err != nil {
		t.Error(err)
	}

	ar, err := kar.Open(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Error(err)
	}

	index := ar.Index()
	if len(index) != 2 || index[0] != "test" || index[1] != "test2" {
		t.Errorf("unexpected index %v", index)
	}

	entries := ar.Entries()
	if len(entries) != 2 {
		t.Fatalf("unexpected entry count %d", len(entries))
	}
	if entries[0].Size != int64(len(testString1)) {
		t.Errorf("unexpected uncompressed size %d", entries[0].Size)
	}
	if entries[1].Offset != entries[0].Offset+entries[0].CompressedSize {
		t.Error("entries are not laid out back to back")
	}
}
