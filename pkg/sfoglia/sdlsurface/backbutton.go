package sdlsurface

import (
	"time"

	"github.com/holoplot/go-evdev"

	"github.com/BrandonKowalski/sfoglia/pkg/sfoglia"
	"github.com/BrandonKowalski/sfoglia/pkg/sfoglia/internal"
)

// BackButtonConfig describes a hardware back button read directly from
// an evdev device, for handhelds whose back key never reaches SDL.
type BackButtonConfig struct {
	DevicePath string        // e.g. /dev/input/event1
	KeyCode    evdev.EvCode  // key code that triggers back navigation
	CoolDown   time.Duration // minimum time between triggered pops
}

// WatchBackButton polls the configured device and negotiates a pop on
// every press. When MaybePop reports the event should bubble, onBubble
// runs (typically: request application exit). The returned stop function
// closes the device and ends the watch.
func WatchBackButton(nav *sfoglia.Navigator, cfg BackButtonConfig, onBubble func()) (func(), error) {
	device, err := evdev.Open(cfg.DevicePath)
	if err != nil {
		return nil, err
	}

	log := internal.GetInternalLogger()
	done := make(chan struct{})

	go func() {
		var lastPress time.Time
		for {
			select {
			case <-done:
				return
			default:
			}

			event, err := device.ReadOne()
			if err != nil {
				log.Debug("back button device read ended", "error", err)
				return
			}
			if event.Type != evdev.EV_KEY || event.Code != cfg.KeyCode || event.Value != 1 {
				continue
			}
			if cfg.CoolDown > 0 && time.Since(lastPress) < cfg.CoolDown {
				continue
			}
			lastPress = time.Now()

			handled, err := nav.MaybePop(nil)
			if err != nil {
				log.Warn("back button pop failed", "error", err)
				continue
			}
			if !handled && onBubble != nil {
				onBubble()
			}
		}
	}()

	return func() {
		close(done)
		device.Close()
	}, nil
}
