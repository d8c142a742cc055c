// Package statefile implements LockedStateFile: scoped exclusive/shared
// access to a named state file with stale-lock recovery and atomic
// temp-file-plus-rename writes. It is the writer path for the quota, work
// queue, temporal queue, routing history and session state documents; the
// metrics log and the overnight result files are written directly by their
// own packages.
package statefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/yannickloth/claude-router-system-sub000/core"
)

// holderRecord is the sidecar "<path>.lock" JSON document written while an
// exclusive lock is held, so a timed-out waiter can decide whether the
// holder is still alive.
type holderRecord struct {
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
	FilePath   string    `json:"file_path"`
}

// Lock represents a held OS-level lock on a state file. Release must be
// called exactly once, normally via defer, on every exit path.
type Lock struct {
	file       *os.File
	path       string
	holderPath string
	exclusive  bool
	released   bool
}

// AcquireExclusive opens path (creating it and its parent directory with
// secure permissions if createIfMissing is true) and blocks, polling every
// pollInterval, until an exclusive OS-level lock is obtained or timeout
// elapses. On success it writes the sidecar holder file recording this
// process's pid.
func AcquireExclusive(path string, timeout, pollInterval time.Duration, createIfMissing bool) (*Lock, error) {
	if err := ensureFile(path, createIfMissing); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, core.NewRouterErrorWithID("statefile.AcquireExclusive", "io", path, err)
	}

	holderPath := path + ".lock"
	deadline := time.Now().Add(timeout)
	triedStaleRecovery := false

	for {
		err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			rec := holderRecord{PID: os.Getpid(), AcquiredAt: time.Now().UTC(), FilePath: path}
			if werr := writeHolder(holderPath, rec); werr != nil {
				_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
				f.Close()
				return nil, werr
			}
			return &Lock{file: f, path: path, holderPath: holderPath, exclusive: true}, nil
		}
		if err != syscall.EWOULDBLOCK && err != syscall.EAGAIN {
			f.Close()
			return nil, core.NewRouterErrorWithID("statefile.AcquireExclusive", "io", path, err)
		}

		if time.Now().After(deadline) {
			if !triedStaleRecovery {
				triedStaleRecovery = true
				if recovered := recoverStaleHolder(holderPath); recovered {
					deadline = time.Now().Add(timeout)
					continue
				}
			}
			holderPID := readHolderPID(holderPath)
			f.Close()
			if holderPID > 0 {
				return nil, core.NewRouterErrorWithID("statefile.AcquireExclusive", "lock", fmt.Sprintf("pid %d", holderPID), core.ErrLockBusy)
			}
			return nil, core.NewRouterErrorWithID("statefile.AcquireExclusive", "lock", path, core.ErrLockTimeout)
		}

		time.Sleep(pollInterval)
	}
}

// AcquireShared blocks until a shared (read) lock is obtained or timeout
// elapses. Multiple shared holders may coexist; no holder file is written.
func AcquireShared(path string, timeout, pollInterval time.Duration) (*Lock, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewRouterErrorWithID("statefile.AcquireShared", "io", path, core.ErrStateCorrupt)
		}
		return nil, core.NewRouterErrorWithID("statefile.AcquireShared", "io", path, err)
	}

	deadline := time.Now().Add(timeout)
	for {
		err := syscall.Flock(int(f.Fd()), syscall.LOCK_SH|syscall.LOCK_NB)
		if err == nil {
			return &Lock{file: f, path: path, exclusive: false}, nil
		}
		if err != syscall.EWOULDBLOCK && err != syscall.EAGAIN {
			f.Close()
			return nil, core.NewRouterErrorWithID("statefile.AcquireShared", "io", path, err)
		}
		if time.Now().After(deadline) {
			f.Close()
			return nil, core.NewRouterErrorWithID("statefile.AcquireShared", "lock", path, core.ErrLockTimeout)
		}
		time.Sleep(pollInterval)
	}
}

// Release unlocks the file, closes the handle, and (for exclusive locks)
// removes the holder sidecar. Safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.released {
		return nil
	}
	l.released = true
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	err := l.file.Close()
	if l.exclusive && l.holderPath != "" {
		_ = os.Remove(l.holderPath)
	}
	return err
}

// File exposes the underlying *os.File for callers that need to read or
// write its contents while holding the lock.
func (l *Lock) File() *os.File {
	return l.file
}

func ensureFile(path string, createIfMissing bool) error {
	dir := filepath.Dir(path)
	if createIfMissing {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return core.NewRouterErrorWithID("statefile.ensureFile", "io", dir, err)
		}
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
		if err != nil {
			return core.NewRouterErrorWithID("statefile.ensureFile", "io", path, err)
		}
		return f.Close()
	}
	if _, err := os.Stat(path); err != nil {
		return core.NewRouterErrorWithID("statefile.ensureFile", "io", path, err)
	}
	return nil
}

func writeHolder(holderPath string, rec holderRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return core.NewRouterErrorWithID("statefile.writeHolder", "io", holderPath, err)
	}
	return WriteAtomic(holderPath, b, 0o600)
}

func readHolderPID(holderPath string) int {
	b, err := os.ReadFile(holderPath)
	if err != nil {
		return 0
	}
	var rec holderRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return 0
	}
	return rec.PID
}

// recoverStaleHolder inspects the holder file; if the recorded PID no
// longer exists (or the holder file is malformed), it deletes the holder
// and reports recovery so the caller can retry once.
func recoverStaleHolder(holderPath string) bool {
	b, err := os.ReadFile(holderPath)
	if err != nil {
		return false
	}
	var rec holderRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		// Malformed holder file: treat as stale.
		_ = os.Remove(holderPath)
		return true
	}
	if rec.PID <= 0 || !pidAlive(rec.PID) {
		_ = os.Remove(holderPath)
		return true
	}
	return false
}

func pidAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds; signal 0 probes liveness
	// without actually sending a signal (matches os.kill(pid, 0)).
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}

// WriteAtomic writes data into a temp file in dir(path) then renames it
// over path, so no reader ever observes a partially-written document.
func WriteAtomic(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return core.NewRouterErrorWithID("statefile.WriteAtomic", "io", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return core.NewRouterErrorWithID("statefile.WriteAtomic", "io", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return core.NewRouterErrorWithID("statefile.WriteAtomic", "io", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return core.NewRouterErrorWithID("statefile.WriteAtomic", "io", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return core.NewRouterErrorWithID("statefile.WriteAtomic", "io", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return core.NewRouterErrorWithID("statefile.WriteAtomic", "io", path, err)
	}
	return nil
}
