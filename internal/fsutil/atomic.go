// Package fsutil holds filesystem helpers shared by the store and the journal.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shadowblip/handycon-setup/internal/messages"
)

// WriteFileAtomic writes data to filename by writing a temp file in the same directory,
// syncing it, and renaming it over the target. The final file has mode perm.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(filename)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filename); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf(messages.AtomicRenameFmt, filename, err)
	}
	return nil
}
