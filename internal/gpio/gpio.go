package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// State is a digital output level.
type State int

const (
	Low  State = 0
	High State = 1
)

// Pin is a claimed digital output. Write changes the level; Close drives
// the pin Low and releases the claim. Implementations are not safe for
// concurrent use; the actuator is the only writer by design.
type Pin interface {
	Write(s State) error
	Close() error
}

const (
	sysfsRoot = "/sys/class/gpio"

	// The kernel needs a moment to create the per-pin attribute files
	// after export.
	exportSettle = 50 * time.Millisecond
)

type sysfsPin struct {
	number int
	dir    string
}

// Open exports the pin through the sysfs GPIO interface, configures it as
// an output and drives it Low. The caller owns the pin until Close.
func Open(number int) (Pin, error) {
	p := &sysfsPin{
		number: number,
		dir:    filepath.Join(sysfsRoot, "gpio"+strconv.Itoa(number)),
	}

	if _, err := os.Stat(p.dir); os.IsNotExist(err) {
		if err := writeAttr(filepath.Join(sysfsRoot, "export"), strconv.Itoa(number)); err != nil {
			return nil, fmt.Errorf("export gpio %d: %w", number, err)
		}
		time.Sleep(exportSettle)
	}

	if err := writeAttr(filepath.Join(p.dir, "direction"), "out"); err != nil {
		return nil, fmt.Errorf("set gpio %d direction: %w", number, err)
	}
	if err := p.Write(Low); err != nil {
		return nil, fmt.Errorf("drive gpio %d low: %w", number, err)
	}
	return p, nil
}

func (p *sysfsPin) Write(s State) error {
	v := "0"
	if s == High {
		v = "1"
	}
	if err := writeAttr(filepath.Join(p.dir, "value"), v); err != nil {
		return fmt.Errorf("write gpio %d value: %w", p.number, err)
	}
	return nil
}

// Close leaves the line de-energized before unexporting, so the relay
// never stays latched past process exit.
func (p *sysfsPin) Close() error {
	writeErr := p.Write(Low)
	if err := writeAttr(filepath.Join(sysfsRoot, "unexport"), strconv.Itoa(p.number)); err != nil {
		return fmt.Errorf("unexport gpio %d: %w", p.number, err)
	}
	return writeErr
}

func writeAttr(path, value string) error {
	return os.WriteFile(path, []byte(value), 0o644)
}
