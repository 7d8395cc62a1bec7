package stdlib

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agenthands/pyworker/pkg/bridge"
	"github.com/agenthands/pyworker/pkg/core/value"
)

var (
	ErrPathEscape       = errors.New("stdlib/fs: path escape violation")
	ErrFileTooLarge     = errors.New("stdlib/fs: file size limit exceeded")
	ErrPermissionDenied = errors.New("stdlib/fs: permission denied")
)

// FSSandbox jails file access under Root. Reads and writes larger than
// MaxFileSize bytes are refused.
type FSSandbox struct {
	Root        string
	MaxFileSize int64
	ReadOnly    bool
}

func NewFSSandbox(root string, maxFileSize int64) *FSSandbox {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = filepath.Clean(root)
	}
	return &FSSandbox{
		Root:        absRoot,
		MaxFileSize: maxFileSize,
	}
}

// Resolve maps a script path onto the host, rejecting anything that
// leaves Root.
func (s *FSSandbox) Resolve(path string) (string, error) {
	full := filepath.Join(s.Root, path)
	rel, err := filepath.Rel(s.Root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, path)
	}
	return full, nil
}

func (s *FSSandbox) ReadFile(path string) ([]byte, error) {
	full, err := s.Resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return nil, err
	}
	if info.Size() > s.MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, path, info.Size())
	}
	return os.ReadFile(full)
}

func (s *FSSandbox) WriteFile(path string, data []byte) error {
	if s.ReadOnly {
		return fmt.Errorf("%w: sandbox is read-only", ErrPermissionDenied)
	}
	full, err := s.Resolve(path)
	if err != nil {
		return err
	}
	if int64(len(data)) > s.MaxFileSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, len(data))
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

// Members returns the fs module: read, write, exists and listdir.
func (s *FSSandbox) Members() map[string]value.Value {
	return map[string]value.Value{
		"read": bridge.Func("read", func(args []value.Value) (value.Value, error) {
			path, err := bridge.StringArg("read", args, 0)
			if err != nil {
				return value.None, err
			}
			data, err := s.ReadFile(path)
			if err != nil {
				return value.None, err
			}
			return value.String(string(data)), nil
		}),
		"write": bridge.Func("write", func(args []value.Value) (value.Value, error) {
			path, err := bridge.StringArg("write", args, 0)
			if err != nil {
				return value.None, err
			}
			content, err := bridge.StringArg("write", args, 1)
			if err != nil {
				return value.None, err
			}
			return value.None, s.WriteFile(path, []byte(content))
		}),
		"exists": bridge.Func("exists", func(args []value.Value) (value.Value, error) {
			path, err := bridge.StringArg("exists", args, 0)
			if err != nil {
				return value.None, err
			}
			full, err := s.Resolve(path)
			if err != nil {
				return value.None, err
			}
			_, err = os.Stat(full)
			return value.Bool(err == nil), nil
		}),
		"listdir": bridge.Func("listdir", func(args []value.Value) (value.Value, error) {
			path := "."
			if len(args) > 0 {
				var err error
				if path, err = bridge.StringArg("listdir", args, 0); err != nil {
					return value.None, err
				}
			}
			full, err := s.Resolve(path)
			if err != nil {
				return value.None, err
			}
			entries, err := os.ReadDir(full)
			if err != nil {
				return value.None, err
			}
			names := make([]string, len(entries))
			for i, e := range entries {
				names[i] = e.Name()
			}
			sort.Strings(names)
			return bridge.FromGo(names)
		}),
	}
}
