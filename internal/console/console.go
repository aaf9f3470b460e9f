package console

import (
	"bufio"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/Niv-Kor/PlayerTwoServer/internal/server"
)

const (
	minClientLimit = 1
	maxClientLimit = 64
)

// Console reads operator commands line by line and emits typed control
// events. Recognized commands: START, SHUTDOWN, MAX_CLIENTS <n>.
type Console struct {
	logger  *slog.Logger
	in      io.Reader
	control chan<- server.ControlEvent
}

func New(logger *slog.Logger, in io.Reader, control chan<- server.ControlEvent) *Console {
	return &Console{
		logger:  logger.WithGroup("console"),
		in:      in,
		control: control,
	}
}

// Run consumes commands until the input reaches EOF. Unrecognized lines are
// logged and skipped.
func (c *Console) Run() error {
	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch strings.ToUpper(fields[0]) {
		case "START":
			c.control <- server.StartEvent{}

		case "SHUTDOWN":
			c.control <- server.ShutdownEvent{}

		case "MAX_CLIENTS":
			if len(fields) != 2 {
				c.logger.Warn("MAX_CLIENTS takes exactly one argument")
				continue
			}
			limit, err := strconv.Atoi(fields[1])
			if err != nil || limit < minClientLimit || limit > maxClientLimit {
				c.logger.Warn(
					"Client limit out of range",
					slog.String("value", fields[1]),
					slog.Int("min", minClientLimit),
					slog.Int("max", maxClientLimit),
				)
				continue
			}
			c.control <- server.SetClientLimitEvent{Limit: limit}

		default:
			c.logger.Warn("Unknown command", slog.String("command", fields[0]))
		}
	}
	return scanner.Err()
}
