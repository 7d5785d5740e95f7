package bench

import (
	"errors"
	"fmt"

	"go.bug.st/serial/enumerator"
)

// DefaultProduct is the USB product description of the module-driver board.
const DefaultProduct = "Split flap"

// ErrNoPort indicates no serial port matches.
var ErrNoPort = errors.New("no split flap display serial port found")

// ListPorts enumerates the serial ports.
var ListPorts = enumerator.GetDetailedPortsList

// FindPort returns the device name of the first serial port whose USB
// product description is product.
func FindPort(product string) (string, error) {
	ports, err := ListPorts()
	if err != nil {
		return "", fmt.Errorf("list serial ports: %w", err)
	}
	for _, p := range ports {
		if p.IsUSB && p.Product == product {
			return p.Name, nil
		}
	}
	return "", ErrNoPort
}
