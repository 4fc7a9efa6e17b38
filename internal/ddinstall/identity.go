package ddinstall

import (
	"fmt"
	"os"
	"os/user"
)

// UserAccount is the resolved identity of the invoking user.
type UserAccount struct {
	Username string
	HomeDir  string
}

// Identity resolves the invoking user. The system implementation reads the
// account database; tests substitute a fixed account.
type Identity interface {
	Current() (*UserAccount, error)
}

type systemIdentity struct{}

// SystemIdentity resolves the invoking user from $USER via the system account
// database, falling back to the owner of the process.
func SystemIdentity() Identity { return systemIdentity{} }

func (systemIdentity) Current() (*UserAccount, error) {
	var u *user.User
	var err error
	if name := os.Getenv("USER"); name != "" {
		u, err = user.Lookup(name)
	} else {
		u, err = user.Current()
	}
	if err != nil {
		return nil, fmt.Errorf("user lookup failed: %v", err)
	}
	if u.HomeDir == "" {
		return nil, fmt.Errorf("no home directory for user %s", u.Username)
	}
	return &UserAccount{Username: u.Username, HomeDir: u.HomeDir}, nil
}
