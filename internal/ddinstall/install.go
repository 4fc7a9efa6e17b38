package ddinstall

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
	"lukechampine.com/blake3"
)

// installArtifact copies the built executable into the install dir,
// overwriting any previous install, and verifies the copy.
func installArtifact(cfg *Config, m *Manifest, profile BuildProfile) error {
	src := filepath.Join(cfg.TargetDir, profile.Subdir(), m.Name)
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("artifact not found: %s", src)
		}
		return fmt.Errorf("could not stat artifact %s: %v", src, err)
	}

	binDir := strings.TrimSuffix(cfg.InstallDir, "/")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("could not create %s: %v", binDir, err)
	}
	dst := filepath.Join(binDir, m.Name)

	// Hold the lock so two installs never interleave writes to dst.
	err = withInstallLock(binDir, func() error {
		// Set to CRITICAL (1) while the installed file is being written.
		isCriticalAtomic.Store(1)
		defer isCriticalAtomic.Store(0)

		if err := copyFileWithProgress(src, dst, info); err != nil {
			return err
		}
		return verifyInstall(src, dst)
	})
	if err != nil {
		return err
	}

	colArrow.Print("-> ")
	colSuccess.Printf("Installed %s to %s/\n", m.Name, binDir)
	return nil
}

// withInstallLock runs fn holding an exclusive advisory lock in dir.
func withInstallLock(dir string, fn func() error) error {
	lockPath := filepath.Join(dir, LockName)
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return err
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)
	return fn()
}

// copyFileWithProgress copies src to dst preserving the file mode, showing a
// byte progress bar when stdout is a terminal.
func copyFileWithProgress(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("could not create %s: %v", dst, err)
	}
	defer out.Close()

	var w io.Writer = out
	if term.IsTerminal(int(os.Stdout.Fd())) {
		bar := progressbar.DefaultBytes(info.Size(), "installing")
		defer bar.Close()
		w = io.MultiWriter(out, bar)
	}

	if _, err := io.Copy(w, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("copy to %s failed: %v", dst, err)
	}

	// Copy file mode
	return os.Chmod(dst, info.Mode())
}

// verifyInstall confirms the installed copy is byte-identical to the
// artifact. A partial or corrupted copy is removed.
func verifyInstall(src, dst string) error {
	srcSum, err := hashFile(src)
	if err != nil {
		return err
	}
	dstSum, err := hashFile(dst)
	if err != nil {
		return err
	}
	if srcSum != dstSum {
		os.Remove(dst)
		return fmt.Errorf("checksum mismatch after install: %s", dst)
	}
	debugf("verified %s (b3 %s)\n", dst, dstSum)
	return nil
}

// hashFile returns the BLAKE3 hex digest of the file (32-byte output, no key).
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
