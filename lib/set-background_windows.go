//go:build windows
// +build windows

package aiwallpaperlib

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
	"golang.org/x/sys/windows/registry"
)

// IDesktopWallpaper does not extend IDispatch so the vtable is laid out
// manually.
type iDesktopWallpaperVtbl struct {
	QueryInterface            uintptr
	AddRef                    uintptr
	Release                   uintptr
	SetWallpaper              uintptr
	GetWallpaper              uintptr
	GetMonitorDevicePathAt    uintptr
	GetMonitorDevicePathCount uintptr
	GetMonitorRECT            uintptr
	SetBackgroundColor        uintptr
	GetBackgroundColor        uintptr
	SetPosition               uintptr
	GetPosition               uintptr
	SetSlideshow              uintptr
	GetSlideshow              uintptr
	SetSlideshowOptions       uintptr
	GetSlideshowOptions       uintptr
	AdvanceSlideshow          uintptr
	GetStatus                 uintptr
	Enable                    uintptr
}

// Pulled from headers
const desktopWallpaperCLSID = "{C2CF3110-460E-4fc1-B9D0-8A1C0C9CC4BD}"
const desktopWallpaperIID = "{B92B56A9-8B55-4E14-9A89-0199BBB6F93B}"
const dwposFill = uintptr(4)

// Monitor is counted but isn't attached to the computer
const sFalse = uintptr(2147500037)

var sysProcAttr = &syscall.SysProcAttr{HideWindow: true}

var modole32 = syscall.NewLazyDLL("ole32.dll")
var coTaskMemFree = modole32.NewProc("CoTaskMemFree")

// withDesktopWallpaper runs fn with an initialized IDesktopWallpaper
// instance, handling COM setup and teardown.
func withDesktopWallpaper(fn func(desktop *ole.IUnknown, vtable *iDesktopWallpaperVtbl) error) error {
	if err := ole.CoInitialize(0); err != nil {
		return err
	}
	defer ole.CoUninitialize()

	desktop, err := ole.CreateInstance(
		ole.NewGUID(desktopWallpaperCLSID),
		ole.NewGUID(desktopWallpaperIID))
	if err != nil {
		return err
	}
	defer desktop.Release()

	vtable := (*iDesktopWallpaperVtbl)(unsafe.Pointer(desktop.RawVTable))
	return fn(desktop, vtable)
}

// monitorDevicePaths returns the device path for every attached monitor, in
// the system's enumeration order.
func monitorDevicePaths() ([]string, error) {
	var paths []string

	err := withDesktopWallpaper(func(desktop *ole.IUnknown, vtable *iDesktopWallpaperVtbl) error {
		var count uint32
		hr, _, err := syscall.Syscall(
			vtable.GetMonitorDevicePathCount,
			2,
			uintptr(unsafe.Pointer(desktop)),
			uintptr(unsafe.Pointer(&count)),
			0)
		if hr != 0 {
			return fmt.Errorf(
				"Unexpected value from GetMonitorDevicePathCount %d %v", hr, err)
		}

		for i := uint32(0); i < count; i++ {
			var pathOut *[1 << 29]uint16

			hr, _, err = syscall.Syscall(
				vtable.GetMonitorDevicePathAt,
				3,
				uintptr(unsafe.Pointer(desktop)),
				uintptr(i),
				uintptr(unsafe.Pointer(&pathOut)))
			if hr != 0 {
				return fmt.Errorf(
					"Unexpected value from GetMonitorDevicePathAt %d %v", hr, err)
			}

			var rect struct{ left, top, right, bottom int32 }
			rectHR, _, errno := syscall.Syscall(
				vtable.GetMonitorRECT,
				3,
				uintptr(unsafe.Pointer(desktop)),
				uintptr(unsafe.Pointer(pathOut)),
				uintptr(unsafe.Pointer(&rect)))
			if (rectHR != 0 && rectHR != sFalse) || errno != 0 {
				return fmt.Errorf(
					"Unexpected value from GetMonitorRECT %d %v", rectHR, errno)
			}

			// Copy to a Go string then immediately free the memory allocated
			// outside of Go's control.
			path := syscall.UTF16ToString(pathOut[:])
			_, _, _ = syscall.Syscall(
				coTaskMemFree.Addr(),
				1,
				uintptr(unsafe.Pointer(pathOut)),
				0,
				0)

			if rectHR == sFalse {
				continue
			}
			paths = append(paths, path)
		}

		return nil
	})

	return paths, err
}

// Tools returns the single Windows setter. IDesktopWallpaper is part of the
// OS, so auto mode never lacks a tool here.
func Tools() []Tool {
	return []Tool{
		{
			Name:      "desktop-api",
			Available: func() bool { return true },
			Set:       setDesktopWallpaper,
		},
	}
}

func setDesktopWallpaper(path string, display int) error {
	if err := setRegistryKeys(); err != nil {
		return err
	}

	monitors, err := monitorDevicePaths()
	if err != nil {
		return err
	}
	if display < 1 || display > len(monitors) {
		return fmt.Errorf(
			"Display %d out of range, %d monitors attached", display, len(monitors))
	}

	return withDesktopWallpaper(func(desktop *ole.IUnknown, vtable *iDesktopWallpaperVtbl) error {
		hr, _, _ := syscall.Syscall(
			vtable.SetPosition,
			2,
			uintptr(unsafe.Pointer(desktop)),
			dwposFill,
			0)
		if hr != 0 {
			return fmt.Errorf("Unexpected value from SetPosition %d", hr)
		}

		hr, _, _ = syscall.Syscall(
			vtable.SetWallpaper,
			3,
			uintptr(unsafe.Pointer(desktop)),
			uintptr(unsafe.Pointer(syscall.StringToUTF16Ptr(monitors[display-1]))),
			uintptr(unsafe.Pointer(syscall.StringToUTF16Ptr(path))))
		if hr != 0 {
			return fmt.Errorf("Unexpected value from SetWallpaper %d", hr)
		}

		return nil
	})
}

func setRegistryKeys() error {
	k, err := registry.OpenKey(
		registry.CURRENT_USER, `Control Panel\Desktop`, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()

	return k.SetDWordValue("JPEGImportQuality", 100)
}

// RefreshDesktop is a no-op; IDesktopWallpaper applies immediately.
func RefreshDesktop() {}

const attachParentProcess = uintptr(^uint32(0)) // (DWORD)-1

var modkernel32 = syscall.NewLazyDLL("kernel32.dll")
var procAttachConsole = modkernel32.NewProc("AttachConsole")

// AttachParentConsole attempts to attach to the parent console if one
// exists so we can get stdout. Note that it's impossible to properly
// redirect stdin. See https://stackoverflow.com/questions/23743217/
func AttachParentConsole() {
	r, _, _ := syscall.Syscall(
		procAttachConsole.Addr(), 1, attachParentProcess, 0, 0)
	if r == 0 {
		return
	}

	hout, err := syscall.GetStdHandle(syscall.STD_OUTPUT_HANDLE)
	if err != nil {
		return
	}
	herr, err := syscall.GetStdHandle(syscall.STD_ERROR_HANDLE)
	if err != nil {
		return
	}

	os.Stdout = os.NewFile(uintptr(hout), "/dev/stdout")
	os.Stderr = os.NewFile(uintptr(herr), "/dev/stderr")
}
