//go:build windows

package shortcut

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// ComCreator writes real .lnk shortcuts through the WScript.Shell COM
// object.
type ComCreator struct{}

// NewSystemCreator returns the platform's shortcut creator.
func NewSystemCreator() Creator {
	return &ComCreator{}
}

func (c *ComCreator) Create(s Spec) (string, error) {
	lnkPath := s.Path + ".lnk"

	// COM is thread-bound.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		if oleErr, ok := err.(*ole.OleError); !ok || (oleErr.Code() != 0 && oleErr.Code() != 1) {
			return "", fmt.Errorf("COM initialization failed: %w", err)
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("WScript.Shell")
	if err != nil {
		return "", fmt.Errorf("failed to create WScript.Shell: %w", err)
	}
	defer unknown.Release()

	wshell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return "", fmt.Errorf("failed to query WScript.Shell: %w", err)
	}
	defer wshell.Release()

	cs, err := oleutil.CallMethod(wshell, "CreateShortcut", lnkPath)
	if err != nil {
		return "", fmt.Errorf("failed to create shortcut object: %w", err)
	}
	link := cs.ToIDispatch()
	defer link.Release()

	if _, err := oleutil.PutProperty(link, "TargetPath", s.Target); err != nil {
		return "", fmt.Errorf("failed to set shortcut target: %w", err)
	}
	if s.Arguments != "" {
		if _, err := oleutil.PutProperty(link, "Arguments", s.Arguments); err != nil {
			return "", fmt.Errorf("failed to set shortcut arguments: %w", err)
		}
	}
	workDir := s.WorkingDir
	if workDir == "" {
		workDir = filepath.Dir(s.Target)
	}
	if _, err := oleutil.PutProperty(link, "WorkingDirectory", workDir); err != nil {
		return "", fmt.Errorf("failed to set shortcut working directory: %w", err)
	}
	if s.Description != "" {
		if _, err := oleutil.PutProperty(link, "Description", s.Description); err != nil {
			return "", fmt.Errorf("failed to set shortcut description: %w", err)
		}
	}
	if s.IconPath != "" {
		icon := fmt.Sprintf("%s,%d", s.IconPath, s.IconIndex)
		if _, err := oleutil.PutProperty(link, "IconLocation", icon); err != nil {
			return "", fmt.Errorf("failed to set shortcut icon: %w", err)
		}
	}
	if _, err := oleutil.CallMethod(link, "Save"); err != nil {
		return "", fmt.Errorf("failed to save shortcut: %w", err)
	}
	return lnkPath, nil
}

func (c *ComCreator) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
