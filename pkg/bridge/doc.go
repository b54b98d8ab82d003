// Package bridge runs the control cycle between velocity commands and the
// MCU: kinematics out, encoder counts in, odometry and status published.
package bridge
