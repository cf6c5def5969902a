package command

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/webstore-go/internal/mirror"
)

// ErrNotFound is returned by get for a name that is not stored.
var ErrNotFound = errors.New("name not found")

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print the value stored under NAME",
		ArgsUsage: "NAME",
		Action: withSession(func(c *cli.Context, rt *runtime, s *session) error {
			name, err := oneArg(c, "NAME")
			if err != nil {
				return err
			}
			v, ok := s.mirror.Get(name)
			if !ok || mirror.IsUndefined(v) {
				return fmt.Errorf("%w: %s", ErrNotFound, name)
			}
			return rt.print(c.App.Writer, v)
		}, false),
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Store a JSON VALUE under NAME",
		ArgsUsage: "NAME VALUE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "string",
				Usage: "Store VALUE as a plain string instead of parsing it as JSON",
			},
		},
		Action: withSession(func(c *cli.Context, rt *runtime, s *session) error {
			if c.NArg() != 2 {
				return fmt.Errorf("expected NAME and VALUE")
			}
			name, raw := c.Args().Get(0), c.Args().Get(1)

			var value any = raw
			if !c.Bool("string") {
				var err error
				if value, err = parseJSON(raw); err != nil {
					return fmt.Errorf("VALUE: %w (use --string for plain text)", err)
				}
			}
			return s.mirror.Set(name, value)
		}, true),
	}
}

// RemoveCommand returns the rm command.
func RemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Remove one or more names",
		ArgsUsage: "NAME...",
		Action: withSession(func(c *cli.Context, rt *runtime, s *session) error {
			if c.NArg() == 0 {
				return fmt.Errorf("expected at least one NAME")
			}
			for _, name := range c.Args().Slice() {
				s.mirror.Delete(name)
			}
			return nil
		}, true),
	}
}

// ListCommand returns the ls command.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:    "ls",
		Aliases: []string{"list"},
		Usage:   "List every name and value",
		Action: withSession(func(c *cli.Context, rt *runtime, s *session) error {
			return rt.print(c.App.Writer, s.mirror.Data())
		}, false),
	}
}

// DefaultCommand returns the default command.
func DefaultCommand() *cli.Command {
	return &cli.Command{
		Name:      "default",
		Usage:     "Assign the entries of a JSON object whose names are not stored yet",
		ArgsUsage: "JSON_OBJECT",
		Action: withSession(func(c *cli.Context, rt *runtime, s *session) error {
			raw, err := oneArg(c, "JSON_OBJECT")
			if err != nil {
				return err
			}
			values, err := parseObject(raw)
			if err != nil {
				return err
			}
			if err := s.mirror.Default(values); err != nil {
				return err
			}
			return rt.print(c.App.Writer, s.mirror.Data())
		}, true),
	}
}

// ResetCommand returns the reset command.
func ResetCommand() *cli.Command {
	return &cli.Command{
		Name:      "reset",
		Usage:     "Remove every name, then assign the entries of an optional JSON object",
		ArgsUsage: "[JSON_OBJECT]",
		Action: withSession(func(c *cli.Context, rt *runtime, s *session) error {
			var values map[string]any
			if c.NArg() > 0 {
				var err error
				if values, err = parseObject(c.Args().First()); err != nil {
					return err
				}
			}
			return s.mirror.Reset(values)
		}, true),
	}
}

// withSession opens the configured store for the duration of fn. When
// write is set, a successful fn is followed by a sync cycle.
func withSession(fn func(*cli.Context, *runtime, *session) error, write bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		rt := getRuntime(c)
		if rt == nil {
			return fmt.Errorf("command not initialized")
		}
		s, err := openSession(rt, sessionOptions{})
		if err != nil {
			return err
		}

		if err := fn(c, rt, s); err != nil {
			s.close()
			return err
		}
		if write {
			return s.commit()
		}
		return s.close()
	}
}

func oneArg(c *cli.Context, name string) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one %s", name)
	}
	return c.Args().First(), nil
}

func parseJSON(raw string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func parseObject(raw string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("JSON_OBJECT: %w", err)
	}
	return obj, nil
}
