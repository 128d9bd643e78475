package util

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// CreateCBZ packs the page images into a zip archive, ordered by page
// number rather than lexically so 10.png follows 9.png.
func CreateCBZ(files []string, output string) (err error) {
	out, err := os.Create(output + PartialSuffix)
	if err != nil {
		return fmt.Errorf("cbz: %w", err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(out.Name())
		}
	}()

	z := zip.NewWriter(out)

	sorted := append([]string(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return PageNumber(sorted[i]) < PageNumber(sorted[j])
	})

	for _, file := range sorted {
		if err := addFileToZip(z, file); err != nil {
			_ = out.Close()
			return fmt.Errorf("cbz: %s: %w", file, err)
		}
	}

	if err := errors.Join(z.Close(), out.Close()); err != nil {
		return fmt.Errorf("cbz: %w", err)
	}

	return os.Rename(out.Name(), output)
}

func addFileToZip(z *zip.Writer, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = fmt.Sprintf("%03d%s", PageNumber(file), filepath.Ext(file))
	header.Method = zip.Store

	w, err := z.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, f)
	return err
}

// PageNumber extracts N from a ".../N.ext" page path, or 0.
func PageNumber(file string) int {
	base := filepath.Base(file)
	n, err := strconv.Atoi(strings.TrimSuffix(base, filepath.Ext(base)))
	if err != nil {
		return 0
	}

	return n
}

// FileExists reports whether path names an existing regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
