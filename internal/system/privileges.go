package system

import (
	"fmt"
	"os"
	"strconv"
)

// IsRoot checks if running as root
func IsRoot() bool {
	return os.Geteuid() == 0
}

// RequireRoot ensures the program is running as root
func RequireRoot() error {
	if !IsRoot() {
		return fmt.Errorf("this command must be run as root (try with sudo)")
	}
	return nil
}

// InvokingUser returns the uid and gid of the user who ran sudo, so files
// created as root can be handed back to them.
func InvokingUser() (uid, gid int, ok bool) {
	u, err := strconv.Atoi(os.Getenv("SUDO_UID"))
	if err != nil {
		return 0, 0, false
	}
	g, err := strconv.Atoi(os.Getenv("SUDO_GID"))
	if err != nil {
		return 0, 0, false
	}
	return u, g, true
}
