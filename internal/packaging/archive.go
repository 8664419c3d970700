package packaging

import (
	"archive/zip"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"
)

// Archiver collects files and writes them out as one archive.
type Archiver interface {
	// AddFile adds data under name with the given permissions.
	AddFile(name string, data []byte, mode fs.FileMode) error
	// AddLocalFile adds the file at localPath under dir, keeping its base
	// name and permissions.
	AddLocalFile(localPath, dir string) error
	// Write finalizes the archive at dst.
	Write(dst string) error
}

type zipEntry struct {
	name string
	data []byte
	mode fs.FileMode
}

// ZipArchiver is an Archiver producing a deflated zip file. Entry times
// are fixed so unchanged inputs yield identical archives.
type ZipArchiver struct {
	entries []zipEntry
}

func NewZipArchiver() *ZipArchiver {
	return &ZipArchiver{}
}

var epoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

func (z *ZipArchiver) AddFile(name string, data []byte, mode fs.FileMode) error {
	if name == "" {
		return fmt.Errorf("zip entry name is empty")
	}
	z.entries = append(z.entries, zipEntry{name: name, data: data, mode: mode})
	return nil
}

func (z *ZipArchiver) AddLocalFile(localPath, dir string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", localPath)
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	name := path.Join(filepath.ToSlash(dir), filepath.Base(localPath))
	return z.AddFile(name, data, info.Mode().Perm())
}

func (z *ZipArchiver) Write(dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()

	w := zip.NewWriter(f)
	for _, e := range z.entries {
		hdr := &zip.FileHeader{
			Name:     e.name,
			Method:   zip.Deflate,
			Modified: epoch,
		}
		hdr.SetMode(e.mode)
		fw, err := w.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("zip entry %s: %w", e.name, err)
		}
		if _, err := fw.Write(e.data); err != nil {
			return fmt.Errorf("zip entry %s: %w", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	return f.Close()
}
