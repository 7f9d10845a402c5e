package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
)

// ErrFolderNotFound indicates the requested folder has never received a file.
var ErrFolderNotFound = errors.New("folder not found")

// File describes a stored file and where it can be downloaded from.
type File struct {
	Name string `json:"fileName"`
	Path string `json:"-"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Local keeps uploaded files on the local filesystem below a root directory.
// Files are exposed under RoutePrefix by the HTTP server.
type Local struct {
	root      string
	publicURL string
	logger    zerolog.Logger
}

// RoutePrefix is the HTTP path prefix the stored files are served from.
const RoutePrefix = "/uploads"

// NewLocal constructs a Local store, creating the root directory when missing.
func NewLocal(root, publicURL string, logger zerolog.Logger) (*Local, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage root must not be empty")
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &Local{
		root:      root,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger.With().Str("component", "local_storage").Logger(),
	}, nil
}

// Root returns the directory the store writes into.
func (l *Local) Root() string {
	return l.root
}

// Save writes the reader into folder/name, replacing an existing file of the same name.
func (l *Local) Save(ctx context.Context, folder, name string, reader io.Reader) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, err
	}

	dir, err := l.folderPath(folder)
	if err != nil {
		return File{}, err
	}

	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return File{}, fmt.Errorf("invalid file name")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return File{}, fmt.Errorf("failed to create folder: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return File{}, fmt.Errorf("failed to create destination file: %w", err)
	}
	tmpName := tmp.Name()

	size, copyErr := io.Copy(tmp, reader)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		return File{}, fmt.Errorf("failed to write file: %w", errors.Join(copyErr, closeErr))
	}

	target := filepath.Join(dir, name)
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return File{}, fmt.Errorf("failed to store file: %w", err)
	}

	file := l.describe(folder, name, size)
	l.logger.Debug().Str("folder", folder).Str("file", name).Int64("size", size).Msg("file stored")

	return file, nil
}

// List returns the files stored in a folder ordered by name.
func (l *Local) List(ctx context.Context, folder string) ([]File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := l.folderPath(folder)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFolderNotFound
		}
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}

	files := make([]File, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat file: %w", err)
		}
		files = append(files, l.describe(folder, entry.Name(), info.Size()))
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	return files, nil
}

// RemoveFolder deletes a folder and everything inside it. Missing folders are ignored.
func (l *Local) RemoveFolder(ctx context.Context, folder string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := l.folderPath(folder)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove folder: %w", err)
	}

	l.logger.Debug().Str("folder", folder).Msg("folder removed")
	return nil
}

// Remove deletes a single file from a folder. Missing files are ignored.
func (l *Local) Remove(ctx context.Context, folder, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, err := l.folderPath(folder)
	if err != nil {
		return err
	}

	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return fmt.Errorf("invalid file name")
	}

	if err := os.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

func (l *Local) folderPath(folder string) (string, error) {
	cleaned := filepath.Clean(strings.TrimSpace(folder))
	if cleaned == "." || cleaned == "" || filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid folder %q", folder)
	}
	return filepath.Join(l.root, cleaned), nil
}

func (l *Local) describe(folder, name string, size int64) File {
	route := RoutePrefix + "/" + url.PathEscape(folder) + "/" + url.PathEscape(name)
	return File{
		Name: name,
		Path: filepath.Join(l.root, folder, name),
		URL:  l.publicURL + route,
		Size: size,
	}
}

// SanitizeName replaces every rune that is not a letter or digit with an underscore.
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, name)
}
