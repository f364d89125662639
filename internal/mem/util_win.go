//go:build windows

package mem

// Windows has no mlockall equivalent that applies process-wide; the
// memguard enclaves already use VirtualLock on their own pages.
func lockMemoryPlatform() (ProtectionLevel, error) {
	return ProtectionPartial, nil
}

func unlockMemoryPlatform() error {
	return nil
}
