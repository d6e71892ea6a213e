package main

import (
	"os/exec"
	"runtime"
)

// Opener hands a URL to whatever opens it on this host.
type Opener interface {
	Open(url string) error
}

// CommandOpener runs Name with Args followed by the URL and waits for it to
// exit. The command's output is not captured.
type CommandOpener struct {
	Name string
	Args []string
}

// NewCommandOpener returns an opener for override, or for the platform's
// default helper when override is empty. In WSL mode the default is wslview,
// which forwards the URL to the Windows host.
func NewCommandOpener(override string, wsl bool) *CommandOpener {
	if override != "" {
		return &CommandOpener{Name: override}
	}
	name, args := defaultOpenCommand(runtime.GOOS, wsl)
	return &CommandOpener{Name: name, Args: args}
}

func defaultOpenCommand(goos string, wsl bool) (string, []string) {
	if wsl {
		return "wslview", nil
	}
	switch goos {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}

func (o *CommandOpener) Open(url string) error {
	args := make([]string, 0, len(o.Args)+1)
	args = append(args, o.Args...)
	args = append(args, url)
	return exec.Command(o.Name, args...).Run()
}
