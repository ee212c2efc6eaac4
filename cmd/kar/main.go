// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/koru3d/puna/utility/kar"
	"golang.org/x/exp/mmap"
)

func init() {
	if u, err := user.Current(); err == nil {
		currentUserName = u.Name
	} else {
		currentUserName = "unknown"
	}
}

var (
	currentUserName string
	author          = flag.String("author", "", "Set the author of the package, defaults to the current user")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the file given")
	compress        = flag.String("c", "", "Compress the given file/folder")
	list            = flag.Bool("l", false, "List the contents of the archive")
	dstFile         = flag.String("f", "out.kar", "Archive file to operate on")
	silent          = flag.Bool("s", false, "Silent")
)

func main() {
	var opMade bool
	flag.Parse()

	if *extract != "" && *compress != "" {
		panic(errors.New("only one operation at a time"))
	}

	if *extract != "" {
		opMade = true
		if err := extractFile(); err != nil {
			panic(err)
		}
	}

	if *compress != "" {
		opMade = true
		if err := compressFiles(); err != nil {
			panic(err)
		}
	}

	if *list {
		opMade = true
		if err := listFiles(); err != nil {
			panic(err)
		}
	}

	if !opMade {
		flag.PrintDefaults()
	}
}

func compressFiles() error {
	if _, err := os.Stat(*dstFile); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	dst, err := os.Create(*dstFile)
	if err != nil {
		return err
	}
	defer dst.Close()

	var filesToCompress []string
	if err := filepath.Walk(*compress, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		filesToCompress = append(filesToCompress, path)
		return nil
	}); err != nil {
		return err
	}

	packageAuthor := *author
	if packageAuthor == "" {
		packageAuthor = currentUserName
	}

	karBuilder, err := kar.NewBuilder(kar.Header{
		Author:      packageAuthor,
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}

	for _, ftc := range filesToCompress {
		f, err := os.Open(ftc)
		if err != nil {
			return err
		}
		if err := karBuilder.Add(ftc, f); err != nil {
			f.Close()
			return err
		}
		f.Close()

		if !*silent {
			fmt.Printf("added %s\n", ftc)
		}
	}

	if _, err := karBuilder.WriteTo(dst); err != nil {
		return err
	}
	return nil
}

func extractFile() error {
	reader, err := mmap.Open(*dstFile)
	if err != nil {
		return err
	}
	defer reader.Close()

	archive, err := kar.Open(reader)
	if err != nil {
		return err
	}

	src, err := archive.Open(*extract)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(*extract); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	dst, err := os.Create(*extract)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}

	if !*silent {
		fmt.Printf("extracted %s\n", *extract)
	}
	return nil
}

func listFiles() error {
	reader, err := mmap.Open(*dstFile)
	if err != nil {
		return err
	}
	defer reader.Close()

	archive, err := kar.Open(reader)
	if err != nil {
		return err
	}

	for _, entry := range archive.Entries() {
		fmt.Printf("%s\t%d\t%d\n", entry.Name, entry.Size, entry.CompressedSize)
	}
	return nil
}
