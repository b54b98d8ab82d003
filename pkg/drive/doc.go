// Package drive implements differential drive kinematics, encoder
// counting and odometry integration.
package drive
