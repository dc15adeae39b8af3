// Package backup writes tar.gz archives holding the tabula database and a
// CSV export of every dataset, and restores the database from them.
package backup

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Export renders one dataset into the archive as <Name>.csv.
type Export struct {
	Name  string
	Write func(ctx context.Context, w io.Writer) error
}

// Archive checkpoints the WAL of db, then writes the database file at dbPath
// and every export to a gzip-compressed tar at outputPath. A partially
// written archive is removed on failure.
func Archive(ctx context.Context, db *sql.DB, dbPath string, exports []Export, outputPath string) (err error) {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("database file not found: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("WAL checkpoint failed: %w", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(outputPath)
		}
	}()

	gw := gzip.NewWriter(out)
	tw := tar.NewWriter(gw)

	if err := addFile(tw, dbPath, filepath.Base(dbPath)); err != nil {
		return fmt.Errorf("adding database to archive: %w", err)
	}

	now := time.Now()
	for _, e := range exports {
		var buf bytes.Buffer
		if err := e.Write(ctx, &buf); err != nil {
			return fmt.Errorf("export %s: %w", e.Name, err)
		}
		if err := addBytes(tw, e.Name+".csv", buf.Bytes(), now); err != nil {
			return fmt.Errorf("adding %s to archive: %w", e.Name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing tar: %w", err)
	}
	return gw.Close()
}

func addFile(tw *tar.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}

func addBytes(tw *tar.Writer, name string, data []byte, modTime time.Time) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: modTime,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}

// Restore extracts the database file from an archive written by Archive to
// dbPath. The CSV exports are not restored. An existing dbPath is only
// replaced when force is set; the server must not be running.
func Restore(ctx context.Context, archivePath, dbPath string, force bool) error {
	if !force {
		if _, err := os.Stat(dbPath); err == nil {
			return fmt.Errorf("%s already exists (use force to overwrite)", dbPath)
		}
	}

	in, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer in.Close()

	gr, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("reading gzip: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return ErrNoDatabase
		}
		if err != nil {
			return fmt.Errorf("reading tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || filepath.Ext(hdr.Name) != ".db" {
			continue
		}
		return writeAtomic(dbPath, tr)
	}
}

// ErrNoDatabase is returned by Restore for an archive without a .db entry.
var ErrNoDatabase = errors.New("archive contains no database file")

func writeAtomic(path string, r io.Reader) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".restore-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		return fmt.Errorf("writing database: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	// Stale WAL files would be replayed over the restored database.
	for _, suffix := range []string{"-wal", "-shm"} {
		if rmErr := os.Remove(path + suffix); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", path+suffix, rmErr)
		}
	}
	return os.Rename(tmp.Name(), path)
}
