package canonical

import (
	"encoding/binary"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/chi32/internal/debug"
	chierrors "github.com/standardbeagle/chi32/internal/errors"
)

const valueSize = 4

// Reference holds the expected values for one case.
type Reference struct {
	Values        []uint32
	Path          string
	Fingerprint   uint64 // xxhash64 of the whole file
	TrailingBytes int    // bytes past the last expected value; a warning, not an error
}

// LoadReference reads c.Length little-endian uint32 values from c.File inside dir.
// A missing file and a short file are reported as *errors.DataError.
func LoadReference(dir string, c Case) (*Reference, error) {
	path := filepath.Join(dir, c.File)

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, chierrors.NewDataError(chierrors.DataMissing, c.Name, path, err)
		}
		return nil, chierrors.NewDataError(chierrors.DataRead, c.Name, path, err)
	}

	return decodeReference(c, path, content)
}

func decodeReference(c Case, path string, content []byte) (*Reference, error) {
	need := c.Length * valueSize
	if len(content) < need {
		return nil, chierrors.NewDataError(chierrors.DataTruncated, c.Name, path, nil).
			WithCounts(c.Length, len(content)/valueSize)
	}

	ref := &Reference{
		Values:        make([]uint32, c.Length),
		Path:          path,
		Fingerprint:   xxhash.Sum64(content),
		TrailingBytes: len(content) - need,
	}
	for i := range ref.Values {
		ref.Values[i] = binary.LittleEndian.Uint32(content[i*valueSize:])
	}

	if ref.TrailingBytes > 0 {
		debug.LogCanonical("%s holds %d bytes beyond the expected %d values\n", path, ref.TrailingBytes, c.Length)
	}
	return ref, nil
}
