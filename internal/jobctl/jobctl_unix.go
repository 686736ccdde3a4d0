//go:build !windows

package jobctl

import (
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

func configureGroup(cmd *exec.Cmd, pgid int) {
	cmd.SysProcAttr = &unix.SysProcAttr{
		Setpgid: true,
		Pgid:    pgid,
	}
}

func setForeground(pgid int) (func(), error) {
	owner, err := unix.Tcgetpgrp(int(os.Stdin.Fd()))
	if err != nil {
		return func() {}, err
	}
	if err := unix.Tcsetpgrp(int(os.Stdin.Fd()), pgid); err != nil {
		return func() {}, err
	}
	return func() {
		_ = unix.Tcsetpgrp(int(os.Stdin.Fd()), owner)
	}, nil
}

func signalGroup(pgid int, sig os.Signal) error {
	s, ok := sig.(unix.Signal)
	if !ok {
		return unix.Kill(-pgid, unix.SIGTERM)
	}
	return unix.Kill(-pgid, s)
}

func stopGroup(pgid int) error {
	return unix.Kill(-pgid, unix.SIGTSTP)
}

func continueGroup(pgid int) error {
	return unix.Kill(-pgid, unix.SIGCONT)
}
