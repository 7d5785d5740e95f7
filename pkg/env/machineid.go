// Package env opens what a board is attached to: link transports, the
// module driver port and the identity of the machine.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID scopes the machine id, so the raw id never leaves the machine.
const AppID = "flapchain"

// MachineID retrieves the ID identifying the machine. The hostname is
// used when the machine has no id.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err == nil {
		return id[:16]
	}
	glog.V(2).Infof("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "unknown"
}
