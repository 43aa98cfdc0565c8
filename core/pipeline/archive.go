package pipeline

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	"github.com/physikerchor/choirdeck/core/errors"
)

// ArchiveWork packs the work directory (rendered LilyPond sources and
// leftover intermediates) into a .tar.xz, for inspecting what the
// external toolchain was actually fed.
func ArchiveWork(workDir, outPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return errors.NewIO("create", outPath, err)
	}
	defer f.Close()

	xzw, err := xz.NewWriter(f)
	if err != nil {
		return errors.Wrap(err, "creating xz writer")
	}
	tw := tar.NewWriter(xzw)

	err = filepath.Walk(workDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(workDir, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "archiving work directory")
	}

	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "finalizing tar")
	}
	if err := xzw.Close(); err != nil {
		return errors.Wrap(err, "finalizing xz")
	}
	return nil
}
