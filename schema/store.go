package schema

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/erpc/rpccheck/common"
	"github.com/erpc/rpccheck/nested"
	"github.com/spf13/afero"
)

// Document is a decoded schema file.
type Document struct {
	Name string
	Path string
	Body any
}

var schemaExtensions = []string{"", ".json", ".yaml", ".yml"}

// Store resolves method names to schema documents in a directory. Files are
// read on every Load so edits are picked up without restarting.
type Store struct {
	fs  afero.Fs
	dir string
}

func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// Load reads the schema for method, trying the bare name and then the .json,
// .yaml and .yml extensions.
func (s *Store) Load(method string) (*Document, error) {
	if method == "" || method != filepath.Base(method) || strings.HasPrefix(method, ".") {
		return nil, common.NewErrSchemaNotFound(method, s.dir)
	}
	for _, ext := range schemaExtensions {
		path := filepath.Join(s.dir, method+ext)
		info, err := s.fs.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, common.NewErrInvalidSchema("cannot access schema file "+path, err)
		}
		if info.IsDir() {
			continue
		}
		raw, err := afero.ReadFile(s.fs, path)
		if err != nil {
			return nil, common.NewErrInvalidSchema("cannot read schema file "+path, err)
		}
		body, err := decodeSchemaFile(raw, ext)
		if err != nil {
			return nil, common.NewErrInvalidSchema("cannot decode schema file "+path, err)
		}
		return &Document{Name: method, Path: path, Body: body}, nil
	}
	return nil, common.NewErrSchemaNotFound(method, s.dir)
}

func decodeSchemaFile(raw []byte, ext string) (any, error) {
	switch ext {
	case ".yaml", ".yml":
		return nested.DecodeYAML(raw)
	case ".json":
		return nested.Decode(raw)
	}
	// Extension-less files are JSON by convention, YAML is accepted too.
	body, err := nested.Decode(raw)
	if err == nil {
		return body, nil
	}
	if yb, yerr := nested.DecodeYAML(raw); yerr == nil {
		return yb, nil
	}
	return nil, err
}

// Methods lists the method names that have a schema file in the store.
func (s *Store) Methods() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	seen := map[string]bool{}
	var methods []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		name := e.Name()
		for _, ext := range schemaExtensions[1:] {
			if strings.HasSuffix(name, ext) {
				name = strings.TrimSuffix(name, ext)
				break
			}
		}
		if !seen[name] {
			seen[name] = true
			methods = append(methods, name)
		}
	}
	sort.Strings(methods)
	return methods, nil
}
