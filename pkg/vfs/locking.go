package vfs

import (
	"time"

	"golang.org/x/net/webdav"
)

// DenyLockSystem is a webdav.LockSystem that grants no locks. Requests that
// carry no lock conditions are confirmed so ordinary reads and uploads
// proceed; everything lock-related fails with webdav.ErrConfirmationFailed,
// which the adapter reports as 412 Precondition Failed.
type DenyLockSystem struct{}

var _ webdav.LockSystem = DenyLockSystem{}

func (DenyLockSystem) Confirm(now time.Time, name0, name1 string, conditions ...webdav.Condition) (func(), error) {
	if len(conditions) > 0 {
		return nil, webdav.ErrConfirmationFailed
	}
	return func() {}, nil
}

func (DenyLockSystem) Create(now time.Time, details webdav.LockDetails) (string, error) {
	return "", webdav.ErrConfirmationFailed
}

func (DenyLockSystem) Refresh(now time.Time, token string, duration time.Duration) (webdav.LockDetails, error) {
	return webdav.LockDetails{}, webdav.ErrConfirmationFailed
}

func (DenyLockSystem) Unlock(now time.Time, token string) error {
	return webdav.ErrConfirmationFailed
}
