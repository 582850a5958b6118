package led

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultClassDir is where the kernel exposes LED class devices.
const DefaultClassDir = "/sys/class/leds"

const (
	attrTrigger  = "trigger"
	attrDelayOn  = "delay_on"
	attrDelayOff = "delay_off"
)

// ErrNotFound is returned by Resolve when the LED directory does not exist.
var ErrNotFound = errors.New("led not found")

// Device is a single LED class device, e.g. /sys/class/leds/green:wlan.
type Device struct {
	name string
	path string
}

// Resolve opens the LED called name under classDir.
func Resolve(classDir, name string) (*Device, error) {
	if name == "" || strings.ContainsRune(name, filepath.Separator) || name == "." || name == ".." {
		return nil, fmt.Errorf("%w: invalid name %q", ErrNotFound, name)
	}

	path := filepath.Join(classDir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotFound, path)
	}

	return &Device{name: name, path: path}, nil
}

// Name returns the LED name.
func (d *Device) Name() string {
	return d.name
}

// Path returns the LED directory.
func (d *Device) Path() string {
	return d.path
}

func (d *Device) WriteTrigger(name string) error {
	return d.write(attrTrigger, name)
}

func (d *Device) WriteDelayOn(ms uint64) error {
	return d.write(attrDelayOn, strconv.FormatUint(ms, 10))
}

func (d *Device) WriteDelayOff(ms uint64) error {
	return d.write(attrDelayOff, strconv.FormatUint(ms, 10))
}

// Trigger returns the active trigger. The kernel lists every available
// trigger and brackets the active one: "none [timer] heartbeat".
func (d *Device) Trigger() (string, error) {
	raw, err := d.read(attrTrigger)
	if err != nil {
		return "", err
	}

	fields := strings.Fields(raw)
	for _, f := range fields {
		if strings.HasPrefix(f, "[") && strings.HasSuffix(f, "]") {
			return strings.TrimSuffix(strings.TrimPrefix(f, "["), "]"), nil
		}
	}
	// plain value, as left behind by a write on a regular file
	if len(fields) == 1 {
		return fields[0], nil
	}
	return "", fmt.Errorf("no active trigger in %q", raw)
}

func (d *Device) DelayOn() (uint64, error) {
	return d.readUint(attrDelayOn)
}

func (d *Device) DelayOff() (uint64, error) {
	return d.readUint(attrDelayOff)
}

// write opens without O_CREATE: sysfs attributes always exist, and a
// missing delay_on means the timer trigger is not active.
func (d *Device) write(attr, value string) error {
	f, err := os.OpenFile(filepath.Join(d.path, attr), os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(value); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (d *Device) read(attr string) (string, error) {
	data, err := os.ReadFile(filepath.Join(d.path, attr))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (d *Device) readUint(attr string) (uint64, error) {
	raw, err := d.read(attr)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", attr, err)
	}
	return v, nil
}
