// Package jsonfile stores the users and projects documents as two flat JSON files.
package jsonfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rpggio/taskboard/internal/repository"
)

// Store implements repository.Store on top of users.json and data.json.
type Store struct {
	usersPath string
	dataPath  string
}

// New creates a Store for the given file paths. The files are created on the
// first save.
func New(usersPath, dataPath string) (*Store, error) {
	if usersPath == "" || dataPath == "" {
		return nil, fmt.Errorf("empty document path")
	}
	if usersPath == dataPath {
		return nil, fmt.Errorf("users and projects documents must be different files: %s", usersPath)
	}
	return &Store{usersPath: usersPath, dataPath: dataPath}, nil
}

// Load reads both documents. A missing file is read as an empty document.
func (s *Store) Load(ctx context.Context) (*repository.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	usersData, err := readFile(s.usersPath)
	if err != nil {
		return nil, err
	}
	users, err := repository.DecodeUsers(usersData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.usersPath, err)
	}

	projectsData, err := readFile(s.dataPath)
	if err != nil {
		return nil, err
	}
	projects, err := repository.DecodeProjects(projectsData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.dataPath, err)
	}

	return &repository.State{Users: users, Projects: projects}, nil
}

// Save writes the documents whose content changed. Both are staged as temp
// files before either is renamed into place, so a failed write replaces
// nothing. The two renames are not atomic as a pair; a crash between them
// can leave users.json newer than data.json.
func (s *Store) Save(ctx context.Context, state *repository.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	usersData, err := repository.EncodeUsers(state.Users)
	if err != nil {
		return err
	}
	projectsData, err := repository.EncodeProjects(state.Projects)
	if err != nil {
		return err
	}

	var staged []stagedFile
	defer func() {
		for _, f := range staged {
			os.Remove(f.tmp)
		}
	}()
	for _, doc := range []struct {
		path string
		data []byte
	}{
		{s.usersPath, usersData},
		{s.dataPath, projectsData},
	} {
		content := append(doc.data, '\n')
		if unchanged(doc.path, content) {
			continue
		}
		f, err := stageFile(doc.path, content)
		if err != nil {
			return err
		}
		staged = append(staged, f)
	}

	for _, f := range staged {
		if err := os.Rename(f.tmp, f.path); err != nil {
			return fmt.Errorf("replace %s: %w", f.path, err)
		}
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

type stagedFile struct {
	path string
	tmp  string
}

// unchanged reports whether path already holds exactly content.
func unchanged(path string, content []byte) bool {
	current, err := os.ReadFile(path)
	return err == nil && bytes.Equal(current, content)
}

// stageFile writes content to a synced temp file next to path.
func stageFile(path string, content []byte) (stagedFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return stagedFile{}, fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return stagedFile{}, fmt.Errorf("create temp file for %s: %w", path, err)
	}
	f := stagedFile{path: path, tmp: tmp.Name()}

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(f.tmp)
		return stagedFile{}, fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(f.tmp)
		return stagedFile{}, fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(f.tmp)
		return stagedFile{}, fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(f.tmp, 0o644); err != nil {
		os.Remove(f.tmp)
		return stagedFile{}, fmt.Errorf("chmod %s: %w", path, err)
	}
	return f, nil
}
