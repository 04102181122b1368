package viewer

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandKind enumerates user commands.
type CommandKind int

// Command kinds.
const (
	KindToggleUpper CommandKind = iota + 1
	KindToggleLower
	KindCameraLeft
	KindCameraCenter
	KindCameraRight
	KindSelectWeek
	KindPlayAll
)

// Command is a discrete user action.
type Command struct {
	Kind CommandKind
	Week int // 1-based, KindSelectWeek only
}

// Fixed commands.
var (
	ToggleUpper  = Command{Kind: KindToggleUpper}
	ToggleLower  = Command{Kind: KindToggleLower}
	CameraLeft   = Command{Kind: KindCameraLeft}
	CameraCenter = Command{Kind: KindCameraCenter}
	CameraRight  = Command{Kind: KindCameraRight}
	PlayAll      = Command{Kind: KindPlayAll}
)

// SelectWeek selects the 1-based week.
func SelectWeek(week int) Command {
	return Command{Kind: KindSelectWeek, Week: week}
}

var commandNames = map[CommandKind]string{
	KindToggleUpper:  "toggle-upper",
	KindToggleLower:  "toggle-lower",
	KindCameraLeft:   "camera-left",
	KindCameraCenter: "camera-center",
	KindCameraRight:  "camera-right",
	KindPlayAll:      "play-all",
}

const selectWeekPrefix = "select-week-"

func (c Command) String() string {
	if c.Kind == KindSelectWeek {
		return selectWeekPrefix + strconv.Itoa(c.Week)
	}
	if name, ok := commandNames[c.Kind]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", int(c.Kind))
}

// ParseCommand parses a command name such as "toggle-upper" or "select-week-3".
func ParseCommand(s string) (Command, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if rest, ok := strings.CutPrefix(name, selectWeekPrefix); ok {
		week, err := strconv.Atoi(rest)
		if err != nil || week < 1 {
			return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
		}
		return SelectWeek(week), nil
	}
	for kind, n := range commandNames {
		if n == name {
			return Command{Kind: kind}, nil
		}
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}
