//go:build windows

package overlay

import (
	"syscall"

	"breakmate/internal/core/model"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver"
)

const positionsWindows = true

const (
	gwlExStyle     int32 = -20
	wsExLayered          = 0x00080000
	wsExToolWindow       = 0x00000080
	lwaAlpha             = 0x2
	swpShowWindow        = 0x0040
	hwndTopmost          = ^uintptr(0) // (HWND)-1
)

var (
	user32DLL                      = syscall.NewLazyDLL("user32.dll")
	procGetWindowLongPtrW          = user32DLL.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtrW          = user32DLL.NewProc("SetWindowLongPtrW")
	procSetLayeredWindowAttributes = user32DLL.NewProc("SetLayeredWindowAttributes")
	procSetWindowPos               = user32DLL.NewProc("SetWindowPos")
	procSetForegroundWindow        = user32DLL.NewProc("SetForegroundWindow")
	procGetShellWindow             = user32DLL.NewProc("GetShellWindow")
)

// placeOnDisplay moves the window onto bounds, keeps it topmost and out of the taskbar.
func placeOnDisplay(window fyne.Window, bounds model.Rect, alpha uint8) {
	withHWND(window, func(hwnd uintptr) {
		style, _, _ := procGetWindowLongPtrW.Call(hwnd, int32ToUintptr(gwlExStyle))
		wanted := style | wsExLayered | wsExToolWindow
		if wanted != style {
			procSetWindowLongPtrW.Call(hwnd, int32ToUintptr(gwlExStyle), wanted)
		}
		procSetLayeredWindowAttributes.Call(hwnd, 0, uintptr(alpha), uintptr(lwaAlpha))
		procSetWindowPos.Call(
			hwnd,
			hwndTopmost,
			intToUintptr(bounds.X),
			intToUintptr(bounds.Y),
			intToUintptr(bounds.Width),
			intToUintptr(bounds.Height),
			swpShowWindow,
		)
	})
}

// releaseFocus hands the foreground back to the desktop shell.
func releaseFocus(window fyne.Window) {
	withHWND(window, func(uintptr) {
		shell, _, _ := procGetShellWindow.Call()
		if shell != 0 {
			procSetForegroundWindow.Call(shell)
		}
	})
}

func withHWND(window fyne.Window, action func(hwnd uintptr)) {
	nativeWindow, ok := window.(driver.NativeWindow)
	if !ok {
		return
	}

	nativeWindow.RunNative(func(context any) {
		var hwnd uintptr
		switch value := context.(type) {
		case driver.WindowsWindowContext:
			hwnd = value.HWND
		case *driver.WindowsWindowContext:
			hwnd = value.HWND
		default:
			return
		}
		if hwnd == 0 {
			return
		}
		action(hwnd)
	})
}

func int32ToUintptr(value int32) uintptr {
	return uintptr(uint32(value))
}

func intToUintptr(value int) uintptr {
	return int32ToUintptr(int32(value))
}
