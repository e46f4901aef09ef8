/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/


package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// LogSink logs the time once a minute
type LogSink struct {
	last string
}

// Show logs text if the minute changed since the last call
func (s *LogSink) Show(text string) error {
	// ignore the blinking separator
	key := strings.Replace(text, ":", " ", 1)
	if key == s.last {
		return nil
	}
	s.last = key
	log.Infof("Time is %s", text)
	return nil
}

// TermSink draws the time on a terminal, in place and in color if possible
type TermSink struct {
	out    io.Writer
	redraw bool
	color  *color.Color
}

// NewTermSink returns a TermSink writing to f
func NewTermSink(f *os.File) *TermSink {
	return newTermSink(f, term.IsTerminal(int(f.Fd())))
}

func newTermSink(out io.Writer, isTerminal bool) *TermSink {
	c := color.New(color.FgGreen, color.Bold)
	if isTerminal {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return &TermSink{out: out, redraw: isTerminal, color: c}
}

// Show draws text
func (s *TermSink) Show(text string) error {
	var err error
	if s.redraw {
		_, err = fmt.Fprintf(s.out, "\r%s", s.color.Sprint(text))
	} else {
		_, err = fmt.Fprintln(s.out, text)
	}
	return err
}

// SerialSink sends the time to a character display attached to a serial port.
// Every update is a carriage return followed by the text.
type SerialSink struct {
	port io.WriteCloser
}

// NewSerialSink opens device at baud 8N1
func NewSerialSink(device string, baud int) (*SerialSink, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(device, mode)
	if err != nil {
		return nil, fmt.Errorf("opening serial display %s: %w", device, err)
	}
	log.Infof("Serial display on %s at %d baud", device, baud)
	return &SerialSink{port: port}, nil
}

// Show writes text to the port
func (s *SerialSink) Show(text string) error {
	b := make([]byte, 0, len(text)+1)
	b = append(b, '\r')
	b = append(b, text...)
	n, err := s.port.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return fmt.Errorf("short write to serial display: %d of %d bytes", n, len(b))
	}
	return nil
}

// Close closes the port
func (s *SerialSink) Close() error {
	return s.port.Close()
}
