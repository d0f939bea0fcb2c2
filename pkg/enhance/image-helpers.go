package enhance

// A few helper routines for getting images out to disk

import(
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes to a temp file in the same dir, then renames it
// into place. A reader of `filename` sees the old contents or the new,
// never a partial write.
func WriteFileAtomic(filename string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return fmt.Errorf("WriteFileAtomic '%s': %w", filename, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("WriteFileAtomic '%s', write: %w", filename, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("WriteFileAtomic '%s', close: %w", filename, err)
	}
	if err := os.Rename(tmpName, filename); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("WriteFileAtomic '%s', rename: %w", filename, err)
	}
	return nil
}
