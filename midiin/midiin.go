// Package midiin reads note on/off events from a hardware MIDI input, for
// playing an instrument live.
package midiin

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	// NoteEvent is one note on or off received from the open input device.
	NoteEvent struct {
		On       bool
		Channel  int
		Note     uint8
		Velocity uint8
	}

	// RTMIDIContext owns the rtmidi driver and the currently open input.
	// Incoming note messages are buffered on a channel; the audio loop
	// drains them with NextEvent between render windows.
	RTMIDIContext struct {
		driver    *rtmididrv.Driver
		currentIn drivers.In
		events    chan NoteEvent
	}
)

// NewContext opens the rtmidi driver. A nil driver means no MIDI backend is
// available on this platform; the context stays usable and simply yields no
// devices.
func NewContext() *RTMIDIContext {
	c := &RTMIDIContext{events: make(chan NoteEvent, 1024)}
	c.driver, _ = rtmididrv.New()
	return c
}

// InputDeviceNames lists the names of the available MIDI input ports.
func (c *RTMIDIContext) InputDeviceNames() []string {
	if c.driver == nil {
		return nil
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(ins))
	for _, in := range ins {
		names = append(names, in.String())
	}
	return names
}

// OpenBy opens the first input device whose name starts with namePrefix, or
// the first available device when takeFirst is set.
func (c *RTMIDIContext) OpenBy(namePrefix string, takeFirst bool) error {
	if c.driver == nil {
		return errors.New("no MIDI driver available")
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return fmt.Errorf("listing MIDI inputs failed: %w", err)
	}
	for _, in := range ins {
		if takeFirst || strings.HasPrefix(in.String(), namePrefix) {
			return c.open(in)
		}
	}
	if takeFirst {
		return errors.New("no MIDI input found")
	}
	return fmt.Errorf("no MIDI input starting with %q found", namePrefix)
}

func (c *RTMIDIContext) open(in drivers.In) error {
	if c.currentIn == in {
		return nil
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.currentIn = in
	if err := in.Open(); err != nil {
		c.currentIn = nil
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	if _, err := midi.ListenTo(in, c.handleMessage); err != nil {
		in.Close()
		c.currentIn = nil
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	return nil
}

func (c *RTMIDIContext) HasDeviceOpen() bool {
	return c.currentIn != nil && c.currentIn.IsOpen()
}

func (c *RTMIDIContext) handleMessage(msg midi.Message, timestampms int32) {
	var channel, key, velocity uint8
	isNoteOn := msg.GetNoteOn(&channel, &key, &velocity)
	isNoteOff := !isNoteOn && msg.GetNoteOff(&channel, &key, &velocity)
	if !isNoteOn && !isNoteOff {
		return
	}
	select {
	case c.events <- NoteEvent{On: isNoteOn, Channel: int(channel), Note: key, Velocity: velocity}:
	default: // if the channel is full, just drop the message
	}
}

// NextEvent returns the next buffered note event, when one is pending.
func (c *RTMIDIContext) NextEvent() (NoteEvent, bool) {
	select {
	case e := <-c.events:
		return e, true
	default:
		return NoteEvent{}, false
	}
}

func (c *RTMIDIContext) Close() {
	if c.driver == nil {
		return
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.driver.Close()
}
