package platform

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"breakmate/internal/core/smartpause"
)

// idleProvider reads HIDIdleTime from the IOHIDSystem registry entry.
type idleProvider struct {
	ioregPath string
}

var hidIdlePattern = regexp.MustCompile(`"HIDIdleTime"\s*=\s*(\d+)`)

func newIdleProvider() IdleProvider {
	path, _ := exec.LookPath("ioreg")
	return &idleProvider{ioregPath: path}
}

func (provider *idleProvider) IdleDuration() (time.Duration, error) {
	if provider.ioregPath == "" {
		return 0, smartpause.ErrIdleUnsupported
	}
	output, err := exec.Command(provider.ioregPath, "-c", "IOHIDSystem", "-d", "4").Output()
	if err != nil {
		return 0, fmt.Errorf("ioreg: %w", err)
	}
	match := hidIdlePattern.FindSubmatch(output)
	if match == nil {
		return 0, fmt.Errorf("ioreg: %w", smartpause.ErrIdleUnsupported)
	}
	idleNanos, err := strconv.ParseInt(string(match[1]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse HIDIdleTime: %w", err)
	}
	return time.Duration(idleNanos), nil
}
