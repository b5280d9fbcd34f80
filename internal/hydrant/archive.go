package hydrant

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"time"
)

var errNoAssetTree = errors.New("no photo asset tree configured")

// writeImageArchive zips every file of the photo-asset tree into name.
// The archive becomes visible only once it is complete. This reads the
// entire tree synchronously and is the slowest part of snapshot creation.
func (s *Service) writeImageArchive(name string) (int, error) {
	if s.assets == nil {
		return 0, errNoAssetTree
	}

	count := 0
	err := s.store.WriteStream(name, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		err := s.assets.Walk(func(relPath string, size int64, modTime time.Time, r io.Reader) error {
			hdr := &zip.FileHeader{
				Name:               relPath,
				Method:             zip.Deflate,
				Modified:           modTime,
				UncompressedSize64: uint64(size),
			}
			fw, err := zw.CreateHeader(hdr)
			if err != nil {
				return fmt.Errorf("adding %s: %w", relPath, err)
			}
			if _, err := io.Copy(fw, r); err != nil {
				return fmt.Errorf("compressing %s: %w", relPath, err)
			}
			count++
			return nil
		})
		if err != nil {
			return err
		}
		return zw.Close()
	})
	if err != nil {
		return 0, fmt.Errorf("writing image archive: %w", err)
	}
	return count, nil
}
