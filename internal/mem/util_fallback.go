//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly && !windows

package mem

func lockMemoryPlatform() (ProtectionLevel, error) {
	return ProtectionNone, nil
}

func unlockMemoryPlatform() error {
	return nil
}
