//go:build !unix

package procrun

import "os/exec"

func setProcessGroup(*exec.Cmd) {}

func signalGroup(c *exec.Cmd, _ bool) {
	if c.Process != nil {
		_ = c.Process.Kill()
	}
}
