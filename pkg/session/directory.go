// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"fmt"
	"sort"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// PortDescriptor identifies a serial endpoint as reported by enumeration.
// It is a snapshot, not a live handle.
type PortDescriptor struct {
	Name         string `yaml:"name"`
	IsUSB        bool   `yaml:"usb"`
	VID          string `yaml:"vid,omitempty"`
	PID          string `yaml:"pid,omitempty"`
	SerialNumber string `yaml:"serial_number,omitempty"`
	Product      string `yaml:"product,omitempty"`
	Bridge       bool   `yaml:"bridge,omitempty"`
}

// String returns the port name plus any USB details
func (p PortDescriptor) String() string {
	switch {
	case p.Bridge:
		return p.Name + " (bridge)"
	case p.IsUSB:
		details := fmt.Sprintf("USB %s:%s", p.VID, p.PID)
		if p.Product != "" {
			details += " " + p.Product
		}
		if p.SerialNumber != "" {
			details += " S/N " + p.SerialNumber
		}
		return fmt.Sprintf("%s (%s)", p.Name, details)
	default:
		return p.Name
	}
}

// Directory is an ordered, index-addressable list of ports. It is rebuilt
// wholesale on refresh; indexes are only meaningful against the snapshot
// they were taken from.
type Directory []PortDescriptor

// Len returns the number of ports
func (d Directory) Len() int {
	return len(d)
}

// At returns the port at index, or ErrNoSuchDevice
func (d Directory) At(index int) (PortDescriptor, error) {
	if index < 0 || index >= len(d) {
		return PortDescriptor{}, fmt.Errorf("%w: index %d (%d available)", ErrNoSuchDevice, index, len(d))
	}
	return d[index], nil
}

// Names returns the port names in order
func (d Directory) Names() []string {
	names := make([]string, len(d))
	for i, p := range d {
		names[i] = p.Name
	}
	return names
}

// Enumerator lists available ports
type Enumerator func() (Directory, error)

// Enumerate lists the serial ports attached to this machine, sorted by
// name. Detailed (USB) listing is tried first; platforms where it fails
// fall back to the plain name listing.
func Enumerate() (Directory, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err == nil {
		dir := make(Directory, 0, len(details))
		for _, d := range details {
			dir = append(dir, PortDescriptor{
				Name:         d.Name,
				IsUSB:        d.IsUSB,
				VID:          d.VID,
				PID:          d.PID,
				SerialNumber: d.SerialNumber,
				Product:      d.Product,
			})
		}
		sortDirectory(dir)
		return dir, nil
	}

	names, listErr := serial.GetPortsList()
	if listErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrEnumeration, listErr)
	}
	dir := make(Directory, 0, len(names))
	for _, name := range names {
		dir = append(dir, PortDescriptor{Name: name})
	}
	sortDirectory(dir)
	return dir, nil
}

func sortDirectory(dir Directory) {
	sort.SliceStable(dir, func(i, j int) bool { return dir[i].Name < dir[j].Name })
}

// WithBridges wraps an enumerator so that the given WebSocket bridge URLs
// are appended after the enumerated ports, in the order given. Bridges are
// listed even when the wrapped enumerator returns an empty list, but an
// enumeration error is still returned as is.
func WithBridges(enum Enumerator, urls []string) Enumerator {
	return func() (Directory, error) {
		dir, err := enum()
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			u = strings.TrimSpace(u)
			if u == "" {
				continue
			}
			dir = append(dir, PortDescriptor{Name: u, Bridge: true})
		}
		return dir, nil
	}
}
