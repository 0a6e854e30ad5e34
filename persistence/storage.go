package persistence

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

var ErrNotFound = errors.New("RECORD_NOT_FOUND")

// Storage is a durable key/value store for snapshots
// Read must return ErrNotFound when nothing was written for key
type Storage interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	Close() error
}

// Open create the storage matching backend (file | bolt | memory)
func Open(backend string, path string) (Storage, error) {
	switch backend {
	case "file", "":
		return NewFileStorage(path)
	case "bolt":
		return NewBoltStorage(path)
	case "memory":
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// FileStorage write each key into its own json file inside a directory
type FileStorage struct {
	dir string
}

func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	return &FileStorage{dir: dir}, nil
}

func (f *FileStorage) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileStorage) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))

	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}

	return data, err
}

// Write replace the file using a temporary file and a rename
func (f *FileStorage) Write(key string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), f.path(key))
}

func (f *FileStorage) Close() error {
	return nil
}

const boltBucketSnapshots = "snapshots" // key: storage key -> snapshot JSON

// BoltStorage keep snapshots inside a bbolt database
type BoltStorage struct {
	storage *bbolt.DB
}

func NewBoltStorage(path string) (*BoltStorage, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}

	instance, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	if err := instance.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketSnapshots))
		return err
	}); err != nil {
		_ = instance.Close()

		return nil, err
	}

	return &BoltStorage{storage: instance}, nil
}

func (b *BoltStorage) Read(key string) ([]byte, error) {
	var data []byte

	err := b.storage.View(func(tx *bbolt.Tx) error {
		value := tx.Bucket([]byte(boltBucketSnapshots)).Get([]byte(key))
		if value == nil {
			return ErrNotFound
		}

		// value is only valid during the transaction
		data = append([]byte{}, value...)
		return nil
	})

	return data, err
}

func (b *BoltStorage) Write(key string, data []byte) error {
	return b.storage.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketSnapshots)).Put([]byte(key), data)
	})
}

func (b *BoltStorage) Close() error {
	return b.storage.Close()
}

// MemoryStorage is a Storage lost on exit
type MemoryStorage struct {
	mutex   sync.RWMutex
	records map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: map[string][]byte{}}
}

func (m *MemoryStorage) Read(key string) ([]byte, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	data, found := m.records[key]
	if !found {
		return nil, ErrNotFound
	}

	return append([]byte{}, data...), nil
}

func (m *MemoryStorage) Write(key string, data []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.records[key] = append([]byte{}, data...)
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}
