package ddinstall

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want BuildProfile
	}{
		{"default", nil, ProfileRelease},
		{"debug", []string{"--debug"}, ProfileDebug},
		{"release", []string{"--release"}, ProfileRelease},
		{"last wins debug", []string{"--release", "--debug"}, ProfileDebug},
		{"last wins release", []string{"--debug", "--release"}, ProfileRelease},
		{"repeated flag", []string{"--debug", "--debug"}, ProfileDebug},
	}
	for _, tc := range tests {
		got, err := parseArgs(tc.args)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestParseArgsUnknownToken(t *testing.T) {
	for _, args := range [][]string{
		{"--bogus"},
		{"--debug", "--bogus"},
		{"install"},
	} {
		_, err := parseArgs(args)
		if err == nil {
			t.Fatalf("expected error for %v", args)
		}
		offending := args[len(args)-1]
		if !strings.Contains(err.Error(), offending) {
			t.Errorf("error %q does not name the offending token %q", err, offending)
		}
	}
}

type fakeIdentity struct {
	account UserAccount
}

func (f fakeIdentity) Current() (*UserAccount, error) {
	return &f.account, nil
}

// chdir changes into dir for the duration of the test, restoring the
// previous working directory on cleanup (t.Chdir requires Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

// writeStubTool writes a shell script standing in for the build tool.
func writeStubTool(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cargo-stub")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeManifest(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(ManifestFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunInstallsReleaseArtifact(t *testing.T) {
	home := t.TempDir()
	chdir(t, t.TempDir())

	writeManifest(t, "[package]\nname = \"mytool\"\nversion = \"0.1.0\"\n")
	stub := writeStubTool(t, "#!/bin/sh\nmkdir -p target/release\nprintf 'artifact-bytes' > target/release/mytool\n")
	t.Setenv("DDINSTALL_BUILD_TOOL", stub)

	code := run(context.Background(), ProfileRelease, fakeIdentity{UserAccount{"alice", home}})
	if code != 0 {
		t.Fatalf("run returned %d, want 0", code)
	}

	installed := filepath.Join(home, "bin", "mytool")
	data, err := os.ReadFile(installed)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "artifact-bytes"; got != want {
		t.Errorf("installed file content: got %q want %q", got, want)
	}
	if _, err := os.Stat(filepath.Join(home, ConfigDir, BuildLogName)); err != nil {
		t.Errorf("build log not written: %v", err)
	}
}

func TestRunInstallsDebugArtifact(t *testing.T) {
	home := t.TempDir()
	chdir(t, t.TempDir())

	writeManifest(t, "name = \"mytool\"\n")
	stub := writeStubTool(t, "#!/bin/sh\nmkdir -p target/debug\nprintf 'debug-bytes' > target/debug/mytool\n")
	t.Setenv("DDINSTALL_BUILD_TOOL", stub)

	code := run(context.Background(), ProfileDebug, fakeIdentity{UserAccount{"alice", home}})
	if code != 0 {
		t.Fatalf("run returned %d, want 0", code)
	}
	data, err := os.ReadFile(filepath.Join(home, "bin", "mytool"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "debug-bytes"; got != want {
		t.Errorf("installed file content: got %q want %q", got, want)
	}
}

func TestRunMissingManifestSkipsBuild(t *testing.T) {
	home := t.TempDir()
	chdir(t, t.TempDir())

	marker := filepath.Join(t.TempDir(), "invoked")
	stub := writeStubTool(t, "#!/bin/sh\ntouch "+marker+"\n")
	t.Setenv("DDINSTALL_BUILD_TOOL", stub)

	code := run(context.Background(), ProfileRelease, fakeIdentity{UserAccount{"alice", home}})
	if code == 0 {
		t.Fatal("run succeeded without a manifest")
	}
	if _, err := os.Stat(marker); err == nil {
		t.Error("build tool was invoked despite missing manifest")
	}
	if _, err := os.Stat(filepath.Join(home, "bin")); err == nil {
		t.Error("bin directory created despite failure")
	}
}

func TestRunBuildFailureAborts(t *testing.T) {
	home := t.TempDir()
	chdir(t, t.TempDir())

	writeManifest(t, "name = \"mytool\"\n")
	stub := writeStubTool(t, "#!/bin/sh\nexit 1\n")
	t.Setenv("DDINSTALL_BUILD_TOOL", stub)

	code := run(context.Background(), ProfileRelease, fakeIdentity{UserAccount{"alice", home}})
	if code == 0 {
		t.Fatal("run succeeded despite failing build")
	}
	if _, err := os.Stat(filepath.Join(home, "bin")); err == nil {
		t.Error("bin directory created despite build failure")
	}
}

func TestRunMissingArtifact(t *testing.T) {
	home := t.TempDir()
	chdir(t, t.TempDir())

	writeManifest(t, "name = \"mytool\"\n")
	stub := writeStubTool(t, "#!/bin/sh\nexit 0\n")
	t.Setenv("DDINSTALL_BUILD_TOOL", stub)

	code := run(context.Background(), ProfileRelease, fakeIdentity{UserAccount{"alice", home}})
	if code == 0 {
		t.Fatal("run succeeded despite missing artifact")
	}
	if _, err := os.Stat(filepath.Join(home, "bin", "mytool")); err == nil {
		t.Error("file installed despite missing artifact")
	}
}

func TestRunOverwritesPreviousInstall(t *testing.T) {
	home := t.TempDir()
	chdir(t, t.TempDir())

	binDir := filepath.Join(home, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(binDir, "mytool"), []byte("old"), 0o755); err != nil {
		t.Fatal(err)
	}

	writeManifest(t, "name = \"mytool\"\n")
	stub := writeStubTool(t, "#!/bin/sh\nmkdir -p target/release\nprintf 'new' > target/release/mytool\n")
	t.Setenv("DDINSTALL_BUILD_TOOL", stub)

	code := run(context.Background(), ProfileRelease, fakeIdentity{UserAccount{"alice", home}})
	if code != 0 {
		t.Fatalf("run returned %d, want 0", code)
	}
	data, err := os.ReadFile(filepath.Join(binDir, "mytool"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), "new"; got != want {
		t.Errorf("installed file content: got %q want %q", got, want)
	}
}
