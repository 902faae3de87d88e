//go:build windows

package logging

import (
	"os"

	"golang.org/x/sys/windows"
)

// enableColors enables ANSI virtual terminal processing on the Windows
// console so colored output renders instead of escape garbage.
func enableColors() {
	for _, stream := range []*os.File{os.Stdout, os.Stderr} {
		handle := windows.Handle(stream.Fd())
		var mode uint32
		if err := windows.GetConsoleMode(handle, &mode); err == nil {
			mode |= windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING
			_ = windows.SetConsoleMode(handle, mode)
		}
	}
}
