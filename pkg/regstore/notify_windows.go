//go:build windows

package regstore

import (
	"golang.org/x/sys/windows"
)

var (
	modshell32          = windows.NewLazySystemDLL("shell32.dll")
	procSHChangeNotify  = modshell32.NewProc("SHChangeNotify")
	shcneAssocChanged   = uintptr(0x08000000)
	shcnfIDList         = uintptr(0)
)

// NotifyAssocChanged tells the shell that file associations changed so
// Explorer refreshes context menus without a logoff.
func NotifyAssocChanged() {
	procSHChangeNotify.Call(shcneAssocChanged, shcnfIDList, 0, 0)
}
