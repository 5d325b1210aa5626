package platform

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"breakmate/internal/core/smartpause"
)

// idleProvider asks xprintidle on X11 sessions and the Mutter idle monitor on Wayland.
type idleProvider struct {
	xprintidlePath string
	gdbusPath      string
	wayland        bool
}

type unsupportedIdleProvider struct{}

var mutterIdlePattern = regexp.MustCompile(`uint64\s+(\d+)`)

func newIdleProvider() IdleProvider {
	provider := &idleProvider{
		wayland: strings.EqualFold(os.Getenv("XDG_SESSION_TYPE"), "wayland"),
	}
	if path, err := exec.LookPath("xprintidle"); err == nil {
		provider.xprintidlePath = path
	}
	if path, err := exec.LookPath("gdbus"); err == nil {
		provider.gdbusPath = path
	}
	if provider.xprintidlePath == "" && provider.gdbusPath == "" {
		return unsupportedIdleProvider{}
	}
	return provider
}

func (provider *idleProvider) IdleDuration() (time.Duration, error) {
	if provider.wayland && provider.gdbusPath != "" {
		return provider.mutterIdle()
	}
	if provider.xprintidlePath == "" {
		return 0, smartpause.ErrIdleUnsupported
	}
	output, err := exec.Command(provider.xprintidlePath).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}
	return parseIdleMillis(strings.TrimSpace(string(output)))
}

func (provider *idleProvider) mutterIdle() (time.Duration, error) {
	output, err := exec.Command(
		provider.gdbusPath, "call", "--session",
		"--dest", "org.gnome.Mutter.IdleMonitor",
		"--object-path", "/org/gnome/Mutter/IdleMonitor/Core",
		"--method", "org.gnome.Mutter.IdleMonitor.GetIdletime",
	).Output()
	if err != nil {
		return 0, fmt.Errorf("mutter idle monitor: %w", smartpause.ErrIdleUnsupported)
	}
	return parseMutterIdle(string(output))
}

func parseMutterIdle(output string) (time.Duration, error) {
	match := mutterIdlePattern.FindStringSubmatch(output)
	if match == nil {
		return 0, fmt.Errorf("parse mutter idle output %q", strings.TrimSpace(output))
	}
	return parseIdleMillis(match[1])
}

func parseIdleMillis(value string) (time.Duration, error) {
	idleMillis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	if idleMillis < 0 {
		idleMillis = 0
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}

func (unsupportedIdleProvider) IdleDuration() (time.Duration, error) {
	return 0, smartpause.ErrIdleUnsupported
}
