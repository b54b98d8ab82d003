// Package drive provides shell commands driving the bridge.
package drive

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/cugo.go/pkg/cli/sh"
	fx "github.com/robotalks/cugo.go/pkg/framework"
	"github.com/robotalks/cugo.go/pkg/geometry"
	"github.com/robotalks/cugo.go/pkg/l1/msgs"
)

// RepeatInterval keeps a timed drive command fresh on the bridge.
const RepeatInterval = 100 * time.Millisecond

// ParseTwist parses LINEAR(m/s) [ANGULAR(degrees/s)].
func ParseTwist(args []string) (*msgs.Twist, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("LINEAR required")
	}
	var msg msgs.Twist
	val, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LINEAR: %w", err)
	}
	msg.Linear = val
	if len(args) > 1 {
		if val, err = strconv.ParseFloat(args[1], 64); err != nil {
			return nil, fmt.Errorf("invalid ANGULAR: %w", err)
		}
		msg.Angular = geometry.AngleFromDegrees(val).Radians()
	}
	return &msg, nil
}

// driveFor repeats msg until d elapses, then stops.
func driveFor(c *ishell.Context, msg *msgs.Twist, d time.Duration) {
	s := sh.ShellFrom(c)
	ticker := time.NewTicker(RepeatInterval)
	defer ticker.Stop()
	timeout := time.After(d)
	for {
		if _, err := s.Send(msg); err != nil {
			c.Err(err)
			break
		}
		select {
		case <-ticker.C:
			continue
		case <-timeout:
		}
		break
	}
	sh.DoCommand(c, &msgs.Twist{})
}

// nextEvent prints the first event accepted by match.
func nextEvent(c *ishell.Context, match func(fx.Message) bool) {
	s := sh.ShellFrom(c)
	timeout := time.After(sh.DefaultCommandTimeout)
	for {
		select {
		case ev := <-s.Conn.Conn.Events():
			if !match(ev) {
				continue
			}
			out, err := sh.FormatMessage(ev, s.OutputJSON)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
			return
		case <-timeout:
			c.Err(fmt.Errorf("no event received"))
			return
		}
	}
}

var (
	// DriveCmd sends a velocity command.
	DriveCmd = ishell.Cmd{
		Name:    "drive",
		Aliases: []string{"dr"},
		Help:    "LINEAR(m/s) [ANGULAR(degrees/s) [DURATION]]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := ParseTwist(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			if len(c.Args) > 2 {
				d, err := time.ParseDuration(c.Args[2])
				if err != nil {
					c.Err(fmt.Errorf("invalid DURATION: %w", err))
					return
				}
				driveFor(c, msg, d)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}

	// StopCmd sends a zero velocity command.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"s"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.Twist{})
		}),
	}

	// StatusCmd queries the failsafe status.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.StatusQuery{})
		}),
	}

	// OdomCmd prints the next published odometry.
	OdomCmd = ishell.Cmd{
		Name:    "odom",
		Aliases: []string{"o"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			nextEvent(c, func(msg fx.Message) bool {
				_, ok := msg.(*msgs.Odometry)
				return ok
			})
		}),
	}
)

func init() {
	sh.AddCmds(
		&DriveCmd,
		&StopCmd,
		&StatusCmd,
		&OdomCmd,
	)
}
