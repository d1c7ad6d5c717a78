// Package storage keeps uploaded chat attachments on local disk and serves
// them under the public /uploads prefix.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"real-time-messenger/apperror"
	"real-time-messenger/enum"
)

const (
	mb = 1 << 20
	// sniffLen matches the header size mimetype inspects by default.
	sniffLen = 3072
)

// Limits caps the upload size per attachment kind.
var Limits = map[enum.MessageType]int64{
	enum.MessageTypeImage:    5 * mb,
	enum.MessageTypeVideo:    50 * mb,
	enum.MessageTypeDocument: 10 * mb,
	enum.MessageTypeAudio:    10 * mb,
}

var documentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
	"text/rtf",
}

type Stored struct {
	FileID      string
	FileName    string
	FileSize    int64
	FileURL     string
	ContentType string
	Kind        enum.MessageType
	// Path is relative to the upload root, e.g. "images/<id>.png".
	Path string
}

type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", dir, err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

// ParseKind maps the upload route segment ("image", "video", ...) to a message type.
func ParseKind(kind string) (enum.MessageType, error) {
	messageType := enum.MessageType(strings.TrimSuffix(strings.ToLower(kind), "s"))
	if !messageType.Valid() || !messageType.IsFile() {
		return "", apperror.New(apperror.ValidationError, fmt.Sprintf("Unsupported upload type %q", kind))
	}
	return messageType, nil
}

// Save sniffs the content type, enforces the per-kind size limit and writes the file.
func (s *LocalStore) Save(kind enum.MessageType, name string, size int64, r io.Reader) (*Stored, error) {
	limit, ok := Limits[kind]
	if !ok {
		return nil, apperror.New(apperror.ValidationError, fmt.Sprintf("Unsupported upload type %q", kind))
	}
	if size > limit {
		return nil, tooLarge(kind, limit)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, apperror.Wrap(apperror.StorageError, "Failed to read upload", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, apperror.New(apperror.ValidationError, "File is empty")
	}

	detected := mimetype.Detect(head)
	if !accepts(kind, detected, name) {
		return nil, apperror.New(apperror.ValidationError,
			fmt.Sprintf("Invalid file type %s. Only %s files are allowed.", detected.String(), kind))
	}

	fileID := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if ext == "" {
		ext = detected.Extension()
	}
	folder := string(kind) + "s"
	relative := path.Join(folder, fileID+ext)

	if err := os.MkdirAll(filepath.Join(s.dir, folder), 0o755); err != nil {
		return nil, apperror.Wrap(apperror.StorageError, "Failed to prepare upload folder", err)
	}
	target := filepath.Join(s.dir, filepath.FromSlash(relative))
	file, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, apperror.Wrap(apperror.StorageError, "Failed to store upload", err)
	}

	written, err := io.Copy(file, io.LimitReader(io.MultiReader(bytes.NewReader(head), r), limit+1))
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(target)
		return nil, apperror.Wrap(apperror.StorageError, "Failed to store upload", err)
	}
	if written > limit {
		_ = os.Remove(target)
		return nil, tooLarge(kind, limit)
	}

	fileName := filepath.Base(name)
	if fileName == "." || fileName == string(filepath.Separator) {
		fileName = fileID + ext
	}

	return &Stored{
		FileID:      fileID,
		FileName:    fileName,
		FileSize:    written,
		FileURL:     s.baseURL + "/uploads/" + relative,
		ContentType: detected.String(),
		Kind:        kind,
		Path:        relative,
	}, nil
}

// Delete removes a stored file given its path relative to the upload root.
func (s *LocalStore) Delete(relative string) error {
	cleaned := path.Clean("/" + strings.TrimPrefix(relative, "/uploads/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.Contains(relative, "..") {
		return apperror.New(apperror.ValidationError, "Invalid file path")
	}

	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(cleaned)))
	if errors.Is(err, fs.ErrNotExist) {
		return apperror.New(apperror.NotFound, "File not found")
	}
	if err != nil {
		return apperror.Wrap(apperror.StorageError, "Failed to delete file", err)
	}
	return nil
}

func accepts(kind enum.MessageType, detected *mimetype.MIME, name string) bool {
	switch kind {
	case enum.MessageTypeImage:
		return strings.HasPrefix(detected.String(), "image/")
	case enum.MessageTypeVideo:
		return strings.HasPrefix(detected.String(), "video/")
	case enum.MessageTypeAudio:
		return strings.HasPrefix(detected.String(), "audio/")
	case enum.MessageTypeDocument:
		if mimetype.EqualsAny(detected.String(), documentTypes...) {
			return true
		}
		// docx whose word/ entry lies past the sniffed header is only seen as a zip
		return detected.Is("application/zip") && strings.EqualFold(filepath.Ext(name), ".docx")
	}
	return false
}

func tooLarge(kind enum.MessageType, limit int64) error {
	return apperror.New(apperror.ValidationError,
		fmt.Sprintf("File size too large. Maximum size for %s files is %dMB.", kind, limit/mb))
}
