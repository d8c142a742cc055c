package statefile

import (
	"encoding/json"
	"os"
	"time"

	"github.com/yannickloth/claude-router-system-sub000/core"
)

// LoadJSON acquires a shared lock on path and decodes it into out. A
// missing file is not an error: out is left at its zero value. A
// malformed document is StateCorrupt: out is reset to its zero value and
// no error is returned, the same fallback UpdateJSON applies.
func LoadJSON[T any](path string, timeout, pollInterval time.Duration, out *T) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return core.NewRouterErrorWithID("statefile.LoadJSON", "io", path, err)
	}

	lock, err := AcquireShared(path, timeout, pollInterval)
	if err != nil {
		return err
	}
	defer lock.Release()

	b, err := os.ReadFile(path)
	if err != nil {
		return core.NewRouterErrorWithID("statefile.LoadJSON", "io", path, err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		// StateCorrupt: fall back to a fresh zero value rather than
		// failing the read.
		*out = *new(T)
	}
	return nil
}

// UpdateJSON performs an exclusive read-modify-write cycle on path: it
// acquires an exclusive lock, decodes the current document (zero value if
// absent or corrupt) into a fresh *T, calls mutate, then atomically
// persists the mutated value. The entire cycle holds the lock, so no
// other writer can interleave.
func UpdateJSON[T any](path string, timeout, pollInterval time.Duration, mutate func(*T) error) error {
	lock, err := AcquireExclusive(path, timeout, pollInterval, true)
	if err != nil {
		return err
	}
	defer lock.Release()

	var current T
	b, err := os.ReadFile(path)
	if err != nil {
		return core.NewRouterErrorWithID("statefile.UpdateJSON", "io", path, err)
	}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &current); err != nil {
			// StateCorrupt: fall back to a fresh zero value rather than
			// failing the write.
			current = *new(T)
		}
	}

	if err := mutate(&current); err != nil {
		return err
	}

	out, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		return core.NewRouterErrorWithID("statefile.UpdateJSON", "io", path, err)
	}
	return WriteAtomic(path, out, 0o600)
}
