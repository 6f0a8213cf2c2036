package params

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Archiver receives a copy of every backup file. The object-storage client
// satisfies this; a nil Archiver disables archiving.
type Archiver interface {
	UploadSnapshot(ctx context.Context, name string, data []byte) error
}

// Store persists one store's parameter set as a JSON file. Every save first
// copies the previous file into the backup directory, so the writer that
// follows the load-modify-save cycle can always be rolled back one step.
type Store struct {
	path      string
	backupDir string
	archiver  Archiver
	log       zerolog.Logger
}

type snapshotFile struct {
	SavedAt time.Time `json:"saved_at"`
	Specs   []Spec    `json:"params"`
}

// NewStore builds a file-backed parameter store.
func NewStore(path, backupDir string, archiver Archiver, log zerolog.Logger) *Store {
	return &Store{
		path:      path,
		backupDir: backupDir,
		archiver:  archiver,
		log:       log.With().Str("component", "params.store").Logger(),
	}
}

// Load reads the current snapshot, falling back to defaults when the file
// does not exist yet.
func (st *Store) Load() (*Set, error) {
	data, err := os.ReadFile(st.path)
	if os.IsNotExist(err) {
		st.log.Info().Str("path", st.path).Msg("no parameter file, using defaults")
		return Defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read parameter file: %w", err)
	}

	set, err := ParseSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("decode parameter file %s: %w", st.path, err)
	}
	return set, nil
}

// ParseSnapshot decodes a snapshot payload, whether read from the parameter
// file, a backup, or a downloaded archive object.
func ParseSnapshot(data []byte) (*Set, error) {
	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return FromSpecs(file.Specs), nil
}

// Save writes the set atomically (temp file + rename), backing up the prior
// version first. Archive upload failures are logged, never fatal.
func (st *Store) Save(ctx context.Context, set *Set) error {
	if err := st.backupCurrent(ctx); err != nil {
		return err
	}

	payload, err := json.MarshalIndent(snapshotFile{
		SavedAt: time.Now(),
		Specs:   set.Specs(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode parameter snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(st.path), 0755); err != nil {
		return fmt.Errorf("create parameter dir: %w", err)
	}

	tmp := st.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0644); err != nil {
		return fmt.Errorf("write parameter temp file: %w", err)
	}
	if err := os.Rename(tmp, st.path); err != nil {
		return fmt.Errorf("replace parameter file: %w", err)
	}

	st.log.Debug().Str("path", st.path).Msg("parameter snapshot saved")
	return nil
}

func (st *Store) backupCurrent(ctx context.Context) error {
	data, err := os.ReadFile(st.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read current parameter file for backup: %w", err)
	}

	if err := os.MkdirAll(st.backupDir, 0755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("order_params_%s.json", time.Now().Format("20060102_150405"))
	backupPath := filepath.Join(st.backupDir, name)
	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return fmt.Errorf("write parameter backup: %w", err)
	}

	if st.archiver != nil {
		if err := st.archiver.UploadSnapshot(ctx, name, data); err != nil {
			st.log.Warn().Err(err).Str("backup", name).Msg("snapshot archive upload failed")
		}
	}
	return nil
}
