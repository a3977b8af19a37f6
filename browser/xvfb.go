package browser

import (
	"fmt"
	"os/exec"
	"time"
)

// startXvfb launches a virtual X display for headful mode. No-op when a
// process is already running on our handle.
func (m *Manager) startXvfb() error {
	if m.xvfb != nil {
		return nil
	}

	if _, err := exec.LookPath("Xvfb"); err != nil {
		return fmt.Errorf("Xvfb not found in PATH: %w", err)
	}

	cmd := exec.Command("Xvfb", m.cfg.XvfbDisplay, "-screen", "0", "1920x1080x24", "-nolisten", "tcp")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start Xvfb: %w", err)
	}
	m.xvfb = cmd
	m.cfg.Logger.Info("browser: xvfb started", "display", m.cfg.XvfbDisplay, "pid", cmd.Process.Pid)

	// Give the display a moment to come up before Chrome attaches.
	time.Sleep(500 * time.Millisecond)
	return nil
}

func (m *Manager) stopXvfb() {
	if m.xvfb == nil {
		return
	}
	if m.xvfb.Process != nil {
		_ = m.xvfb.Process.Kill()
		_ = m.xvfb.Wait()
	}
	m.xvfb = nil
}
