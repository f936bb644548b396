// Package codec persists call results as cache records.
package codec

import (
	"errors"
	"os"

	"go.trai.ch/rewind/internal/core/domain"
	"go.trai.ch/zerr"
)

// writeExclusive creates path and writes data to it. It fails with an error
// wrapping fs.ErrExist when the file is already present.
func writeExclusive(path string, data []byte) error {
	//nolint:gosec // path is resolved by the record store
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, domain.FilePerm)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create record"), "path", path)
	}

	_, writeErr := f.Write(data)
	closeErr := f.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(path)
		return zerr.With(zerr.Wrap(err, "failed to write record"), "path", path)
	}
	return nil
}

func readRecord(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is resolved by the record store
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read record"), "path", path)
	}
	return data, nil
}
