package daemon

import (
	"fmt"
	"os/exec"

	"github.com/sirupsen/logrus"
)

// runCleanupCommands executes the configured shutdown commands in
// order through the shell.  A failing command is logged and the
// sequence keeps going; termination is coming either way, so partial
// cleanup beats none.
func runCleanupCommands(commands []string, log *logrus.Logger) error {
	failures := 0

	for _, command := range commands {
		log.WithField("command", command).Info("running cleanup command")

		out, err := exec.Command("/bin/sh", "-c", command).CombinedOutput()
		if err != nil {
			failures++
			log.WithFields(logrus.Fields{
				"err":     err,
				"command": command,
				"output":  string(out),
			}).Error("cleanup command failed")
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d cleanup commands failed", failures, len(commands))
	}

	return nil
}
