package ddinstall

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gookit/color"
	"golang.org/x/term"
)

// parseArgs scans the argument tokens left to right. Profile flags may
// repeat; the last one wins. Any other token aborts the run.
func parseArgs(args []string) (BuildProfile, error) {
	profile := ProfileRelease
	for _, arg := range args {
		switch arg {
		case "--debug":
			profile = ProfileDebug
		case "--release":
			profile = ProfileRelease
		default:
			return "", fmt.Errorf("unknown parameter: %s", arg)
		}
	}
	return profile, nil
}

// Main is the CLI entrypoint for ddinstall. It returns the process exit code.
func Main() int {
	// 1. CONTEXT AND SIGNAL SETUP
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		for {
			select {
			case sig := <-sigs:
				if isCriticalAtomic.Load() == 1 {
					// --- CRITICAL PHASE: Block 1st signal, force exit on 2nd ---
					colArrow.Print("\n-> ")
					colError.Printf("Install in progress. Press Ctrl+C AGAIN to force exit NOW.\n")

					select {
					case <-sigs:
						colArrow.Print("\n-> ")
						colError.Printf("Forced immediate exit.")
						os.Exit(130) // Common exit code for SIGINT
					case <-time.After(5 * time.Second):
						continue
					case <-ctx.Done():
						return
					}
				} else {
					// --- NON-CRITICAL PHASE: Graceful Cancellation ---
					colArrow.Print("\n-> ")
					color.Danger.Printf("Received %v. Cancelling build gracefully\n", sig)
					cancel()

					// Give the build tool a moment to die and flush its buffers
					time.Sleep(100 * time.Millisecond)

					select {
					case <-sigs:
						colArrow.Print("\n-> ")
						color.Danger.Printf("Second interrupt received. Forcing immediate exit.")
						os.Exit(130)
					case <-time.After(2 * time.Second):
						colArrow.Print("\n-> ")
						color.Danger.Printf("Graceful shutdown timeout. Exiting.")
						os.Exit(130)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	// Plain output when piped
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		color.Disable()
	}

	// 2. ARGUMENT SCAN
	// An unknown token is fatal before any build side effect.
	profile, err := parseArgs(os.Args[1:])
	if err != nil {
		colError.Println(err)
		return 1
	}

	debugf("ddinstall %s, profile %s\n", version, profile)

	return run(ctx, profile, SystemIdentity())
}

// run executes the install pipeline, stopping at the first failure. The
// manifest is validated before the build is invoked so a broken manifest
// never costs a build.
func run(ctx context.Context, profile BuildProfile, id Identity) int {
	cwd, err := os.Getwd()
	if err != nil {
		colError.Printf("could not determine working directory: %v\n", err)
		return 1
	}

	manifest, err := loadManifest(cwd)
	if err != nil {
		colError.Println(err)
		return 1
	}

	account, err := id.Current()
	if err != nil {
		colError.Println(err)
		return 1
	}

	cfg, err := loadConfig(account.HomeDir)
	if err != nil {
		colError.Println(err)
		return 1
	}

	colArrow.Print("-> ")
	if manifest.Version != "" {
		cPrintf(colInfo, "Building %s %s (%s) for %s\n", manifest.Name, manifest.Version, profile, account.Username)
	} else {
		cPrintf(colInfo, "Building %s (%s) for %s\n", manifest.Name, profile, account.Username)
	}

	execCtx := NewExecutor(ctx)
	if err := runBuild(cfg, profile, account.HomeDir, execCtx); err != nil {
		colError.Println(err)
		if ctx.Err() != nil {
			return 130
		}
		return 1
	}

	if err := installArtifact(cfg, manifest, profile); err != nil {
		colError.Println(err)
		return 1
	}
	return 0
}
