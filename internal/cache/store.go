package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	cacheDirectoryPermissionsConstant = 0o755
	cacheDirectoryCreateTemplateError = "unable to create cache directory %q: %w"
)

// CloneStore maps cache keys to directories under a root and owns the mutual
// exclusion between concurrent users of the same key.
type CloneStore struct {
	rootDirectory string
	guardMutex    sync.Mutex
	keyLocks      map[string]*sync.Mutex
}

// NewCloneStore constructs a store rooted at the supplied directory.
func NewCloneStore(rootDirectory string) *CloneStore {
	return &CloneStore{rootDirectory: rootDirectory, keyLocks: map[string]*sync.Mutex{}}
}

// DirectoryFor resolves the directory assigned to a key, creating it when
// absent. The directory name is a digest of the key, so any key shape maps to
// a filesystem-safe path.
func (store *CloneStore) DirectoryFor(cacheKey string) (string, error) {
	keyDigest := sha256.Sum256([]byte(cacheKey))
	cacheDirectory := filepath.Join(store.rootDirectory, hex.EncodeToString(keyDigest[:]))
	if mkdirError := os.MkdirAll(cacheDirectory, cacheDirectoryPermissionsConstant); mkdirError != nil {
		return "", fmt.Errorf(cacheDirectoryCreateTemplateError, cacheDirectory, mkdirError)
	}
	return cacheDirectory, nil
}

// WithExclusive runs the supplied function while holding the lock for the
// key. Callers using the same key serialize; distinct keys do not contend.
func (store *CloneStore) WithExclusive(cacheKey string, lockedFunction func(cacheDirectory string) error) error {
	keyLock := store.lockFor(cacheKey)
	keyLock.Lock()
	defer keyLock.Unlock()

	cacheDirectory, directoryError := store.DirectoryFor(cacheKey)
	if directoryError != nil {
		return directoryError
	}
	return lockedFunction(cacheDirectory)
}

func (store *CloneStore) lockFor(cacheKey string) *sync.Mutex {
	store.guardMutex.Lock()
	defer store.guardMutex.Unlock()

	keyLock, lockExists := store.keyLocks[cacheKey]
	if !lockExists {
		keyLock = &sync.Mutex{}
		store.keyLocks[cacheKey] = keyLock
	}
	return keyLock
}
