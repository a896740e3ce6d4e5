// SPDX-License-Identifier: EPL-2.0

package supervisor

// State of the playback lifecycle.
type State int32

const (
	Stopped State = iota
	Starting
	Running
	// Degraded runs the control loop without an audio device.
	Degraded
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Degraded:
		return "degraded"
	case Stopping:
		return "stopping"
	}

	return "unknown"
}
