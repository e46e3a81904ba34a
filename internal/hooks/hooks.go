// Package hooks runs the post-send/post-receive shell commands configured
// on a Partner profile (CmdSend/CmdReceive), substituting a small set of
// template variables the way the reference implementation's
// run_post_send/run_post_receive do.
package hooks

import (
	"os/exec"
	"strings"

	"github.com/as2gw/gateway/internal/logging"
)

// Vars are the template variables available to a configured command,
// substituted with ${name} placeholders.
type Vars struct {
	Filename     string
	FullFilename string
	Sender       string
	Receiver     string
	MessageID    string
}

// Run executes cmd after substituting Vars, matching _parse_cmd's
// safe_substitute: unknown placeholders are left untouched rather than
// causing an error, and the command is split on whitespace before exec
// (no shell is invoked, so shell metacharacters in variable values are
// inert).
func Run(cmd string, vars Vars) error {
	if strings.TrimSpace(cmd) == "" {
		return nil
	}
	log := logging.WithComponent("hooks")

	resolved := substitute(cmd, vars)
	fields := strings.Fields(resolved)
	if len(fields) == 0 {
		return nil
	}

	log.Info().Str("command", resolved).Msg("executing post-processing command")

	c := exec.Command(fields[0], fields[1:]...)
	if err := c.Start(); err != nil {
		log.Error().Err(err).Str("command", resolved).Msg("failed to start post-processing command")
		return err
	}

	// Fire-and-forget, matching subprocess.Popen: the command runs
	// detached from the request/response cycle that triggered it.
	go func() {
		if err := c.Wait(); err != nil {
			log.Warn().Err(err).Str("command", resolved).Msg("post-processing command exited with error")
		}
	}()
	return nil
}

func substitute(cmd string, vars Vars) string {
	replacer := strings.NewReplacer(
		"${filename}", vars.Filename,
		"${fullfilename}", vars.FullFilename,
		"${sender}", vars.Sender,
		"${recevier}", vars.Receiver,
		"${receiver}", vars.Receiver,
		"${messageid}", vars.MessageID,
	)
	return replacer.Replace(cmd)
}
