package evidence

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// maxExtractedFileSize caps a single extracted entry so a crafted
// archive cannot fill the disk.
const maxExtractedFileSize = 256 << 20 // 256 MiB

// ExtractArchiveToStaging unpacks a .zip, .tar, .tar.gz, or .tgz archive
// into a fresh staging directory and returns its path. Entries escaping
// the staging root are rejected. The caller ingests the staging tree with
// IngestFromStaging and may delete it afterwards.
func ExtractArchiveToStaging(path string, progress Progress) (string, error) {
	staging, err := os.MkdirTemp("", "fathom-staging-*")
	if err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		err = extractZip(path, staging, progress)
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		err = extractTar(path, staging, true, progress)
	case strings.HasSuffix(lower, ".tar"):
		err = extractTar(path, staging, false, progress)
	default:
		err = fmt.Errorf("unsupported archive format: %s", filepath.Ext(path))
	}
	if err != nil {
		_ = os.RemoveAll(staging)
		return "", err
	}
	return staging, nil
}

func extractZip(path, staging string, progress Progress) error {
	r, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	for i, f := range r.File {
		if progress != nil {
			progress(i, f.Name)
		}
		if f.FileInfo().IsDir() {
			continue
		}
		dest, err := safeJoin(staging, f.Name)
		if err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open zip entry %s: %w", f.Name, err)
		}
		err = writeEntry(dest, rc, maxExtractedFileSize)
		rc.Close()
		if err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractTar(path, staging string, gzipped bool, progress Progress) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	var src io.Reader = f
	if gzipped {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("open gzip: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	tr := tar.NewReader(src)
	count := 0
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if progress != nil {
			progress(count, hdr.Name)
		}
		dest, err := safeJoin(staging, hdr.Name)
		if err != nil {
			return err
		}
		if err := writeEntry(dest, tr, maxExtractedFileSize); err != nil {
			return fmt.Errorf("extract %s: %w", hdr.Name, err)
		}
		count++
	}
}

// safeJoin joins an archive entry name under root, rejecting absolute
// paths and traversal.
func safeJoin(root, name string) (string, error) {
	clean := filepath.Clean(name)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes staging dir", name)
	}
	return filepath.Join(root, clean), nil
}

// writeEntry copies one archive entry to dest. An entry larger than max
// is an error, not a truncation.
func writeEntry(dest string, src io.Reader, max int64) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	n, err := io.Copy(out, io.LimitReader(src, max+1))
	if err != nil {
		return err
	}
	if n > max {
		return fmt.Errorf("archive entry %q exceeds %d bytes", filepath.Base(dest), max)
	}
	return nil
}
