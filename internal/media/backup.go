package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// backup moves an existing file aside while it is being rewritten. Until
// commit is called, rollback puts the previous file back and removes any
// partial output.
type backup struct {
	path  string
	saved string
	done  bool
	log   *zap.Logger
}

func beginBackup(path string, log *zap.Logger) (*backup, error) {
	b := &backup{path: path, log: log}
	_, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return b, nil
	}
	if err != nil {
		return nil, err
	}
	b.saved = filepath.Join(filepath.Dir(path), fmt.Sprintf(".%s.%s.bak", filepath.Base(path), uuid.NewString()))
	if err := os.Rename(path, b.saved); err != nil {
		return nil, fmt.Errorf("back up %s: %w", path, err)
	}
	return b, nil
}

func (b *backup) commit() error {
	b.done = true
	if b.saved == "" {
		return nil
	}
	if err := os.Remove(b.saved); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("drop backup of %s: %w", b.path, err)
	}
	return nil
}

// rollback is a no-op after commit.
func (b *backup) rollback() {
	if b.done {
		return
	}
	b.done = true
	if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		b.log.Warn("remove partial thumbnail", zap.String("path", b.path), zap.Error(err))
	}
	if b.saved == "" {
		return
	}
	if err := os.Rename(b.saved, b.path); err != nil {
		b.log.Error("restore thumbnail backup", zap.String("path", b.path), zap.String("backup", b.saved), zap.Error(err))
	}
}
