package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ============================================================
// File Storage
// ============================================================

var (
	ErrUnsupportedImage = errors.New("background must be a png, jpeg or webp image")
	ErrInvalidName      = errors.New("invalid file name")
)

var imageExts = map[string]string{
	".png":  ".png",
	".jpg":  ".jpg",
	".jpeg": ".jpg",
	".webp": ".webp",
}

// FileStorage хранит фоновые изображения дизайнов в одном каталоге
// под случайными именами.
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

func (s *FileStorage) Root() string {
	return s.root
}

func (s *FileStorage) EnsureDir() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("mkdir uploads dir: %w", err)
	}
	return nil
}

// Save пишет r под новым именем с расширением исходного файла.
func (s *FileStorage) Save(originalName string, r io.Reader) (string, error) {
	ext, ok := imageExts[strings.ToLower(filepath.Ext(originalName))]
	if !ok {
		return "", ErrUnsupportedImage
	}
	if err := s.EnsureDir(); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	f, err := os.OpenFile(filepath.Join(s.root, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	return name, nil
}

// Path возвращает путь к файлу, не выпуская имя за пределы каталога.
func (s *FileStorage) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return filepath.Join(s.root, name), nil
}

// Remove удаляет файл; отсутствие файла не считается ошибкой.
func (s *FileStorage) Remove(name string) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}
