package actuator

import (
	"fmt"
	"time"

	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/gpio"
	"github.com/cjhehehe/smartaccesscontrol-raspberrypi/internal/logger"
)

// Lock drives the physical lock relay. Both operations block the caller
// and end with the output de-energized. Callers must not overlap them;
// the validation engine issues at most one per scan.
type Lock interface {
	Engage(d time.Duration) error
	SignalDenial() error
}

// Defaults matching the installed relay boards.
const (
	DefaultFlashCount    = 6
	DefaultFlashInterval = 150 * time.Millisecond
)

// RelayLock is a Lock over a single GPIO-driven relay.
type RelayLock struct {
	pin           gpio.Pin
	flashCount    int
	flashInterval time.Duration
	log           *logger.Logger
}

func NewRelayLock(pin gpio.Pin, flashCount int, flashInterval time.Duration, log *logger.Logger) *RelayLock {
	if flashCount <= 0 {
		flashCount = DefaultFlashCount
	}
	if flashInterval <= 0 {
		flashInterval = DefaultFlashInterval
	}
	return &RelayLock{
		pin:           pin,
		flashCount:    flashCount,
		flashInterval: flashInterval,
		log:           log,
	}
}

var _ Lock = (*RelayLock)(nil)

// Engage energizes the relay for d, then locks again. The deferred write
// keeps the invariant "low after every exit path" even if the timed write
// below is never reached.
func (l *RelayLock) Engage(d time.Duration) (err error) {
	l.log.Infow("unlocking_door", "duration", d)
	defer func() {
		if werr := l.pin.Write(gpio.Low); werr != nil && err == nil {
			err = fmt.Errorf("de-energize relay: %w", werr)
		}
		if err == nil {
			l.log.Infow("door_locked")
		}
	}()

	if werr := l.pin.Write(gpio.High); werr != nil {
		return fmt.Errorf("energize relay: %w", werr)
	}
	time.Sleep(d)
	return nil
}

// SignalDenial blinks the relay as a visible rejection signal. A failed
// blink is not an access error; the first write failure just ends the
// pattern after forcing the line low.
func (l *RelayLock) SignalDenial() error {
	l.log.Warnw("flashing_denial_signal", "count", l.flashCount)
	for i := 0; i < l.flashCount; i++ {
		if err := l.pin.Write(gpio.High); err != nil {
			_ = l.pin.Write(gpio.Low)
			return fmt.Errorf("denial flash %d: %w", i+1, err)
		}
		time.Sleep(l.flashInterval)
		if err := l.pin.Write(gpio.Low); err != nil {
			return fmt.Errorf("denial flash %d: %w", i+1, err)
		}
		time.Sleep(l.flashInterval)
	}
	return nil
}
