package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ravenkeep/townsquare/internal/dependencies/random"
	"github.com/ravenkeep/townsquare/internal/host"
	"github.com/ravenkeep/townsquare/internal/model"
	"github.com/ravenkeep/townsquare/internal/ws"
)

func newHostCmd() *cobra.Command {
	var (
		room    string
		edition string
		roles   []string
	)

	cmd := &cobra.Command{
		Use:   "host",
		Short: "Open a room and run the host session",
		Long: `Opens a room (or reconnects to one with --room) and relays role
assignments to joining players.

Interactive commands on stdin:
  assign <name> <category> <role>
  kick <name>
  reveal
  night
  quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := Dial(cfg.ServerURL)
			if err != nil {
				return err
			}
			defer client.Close()

			var editionData *model.Edition
			if edition != "" {
				editionData, err = client.FetchEdition(edition)
				if err != nil {
					return fmt.Errorf("loading edition %q: %w", edition, err)
				}
			}

			rejoining := room != ""
			if rejoining {
				err = client.Send(ws.CmdRejoin, ws.RejoinRequest{
					Kind: model.RejoinHost,
					Room: model.RoomCode(room),
				})
			} else if edition != "" {
				err = client.Send(ws.CmdHost, ws.HostRequest{Edition: edition})
			} else {
				err = client.Send(ws.CmdHost, nil)
			}
			if err != nil {
				return err
			}

			code, err := awaitRoomCode(client)
			if err != nil {
				return err
			}
			fmt.Printf("hosting room %s\n", code)

			session, err := host.NewSession(
				code, edition, editionData,
				host.NewFileStore(cfg.SnapshotDir),
				client, random.New(), hostLogger(),
			)
			if err != nil {
				return err
			}

			if len(roles) > 0 {
				pool, err := parsePool(roles)
				if err != nil {
					return err
				}
				if err := session.SelectPool(pool); err != nil {
					return err
				}
			}

			if rejoining {
				if err := session.RestoreAfterReconnect(); err != nil {
					return err
				}
				if role, err := session.CurrentNightRole(); err == nil {
					fmt.Printf("night resumes with %s\n", role)
				}
			}

			return runHostLoop(client, session, code)
		},
	}

	cmd.Flags().StringVar(&room, "room", "", "Reconnect to an existing room code")
	cmd.Flags().StringVar(&edition, "edition", "", "Edition to load role data from")
	cmd.Flags().StringSliceVar(&roles, "roles", nil, "Role pool as category/role pairs (e.g. Townsfolk/Chef)")

	return cmd
}

// awaitRoomCode reads frames until the server answers the host or
// rejoin request
func awaitRoomCode(client *Client) (model.RoomCode, error) {
	for {
		ev, err := client.ReadEvent()
		if err != nil {
			return "", err
		}
		switch ev.Type {
		case model.EventHosted, model.EventReconnectedHost:
			var code model.RoomCode
			if err := json.Unmarshal(ev.Data, &code); err != nil {
				return "", err
			}
			return code, nil
		case model.EventJoinError:
			var msg string
			_ = json.Unmarshal(ev.Data, &msg)
			return "", fmt.Errorf("%s", msg)
		}
	}
}

// runHostLoop multiplexes server events and stdin commands. The
// session is only touched from this goroutine.
func runHostLoop(client *Client, session *host.Session, room model.RoomCode) error {
	events := make(chan *Event)
	readErrs := make(chan error, 1)
	go func() {
		for {
			ev, err := client.ReadEvent()
			if err != nil {
				readErrs <- err
				return
			}
			events <- ev
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case err := <-readErrs:
			return fmt.Errorf("connection lost: %w", err)

		case ev := <-events:
			if err := handleHostEvent(session, ev); err != nil {
				return err
			}

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			done, err := handleHostCommand(client, session, room, line)
			if err != nil {
				fmt.Printf("error: %v\n", err)
			}
			if done {
				return nil
			}
		}
	}
}

func handleHostEvent(session *host.Session, ev *Event) error {
	switch ev.Type {
	case model.EventUserJoined:
		var name model.Username
		if err := json.Unmarshal(ev.Data, &name); err != nil {
			return nil
		}
		fmt.Printf("%s joined\n", name)
		return session.HandleUserJoined(name)

	case model.EventUserLeft:
		var name model.Username
		if err := json.Unmarshal(ev.Data, &name); err != nil {
			return nil
		}
		fmt.Printf("%s left\n", name)

	default:
		fmt.Printf("event: %s\n", ev.Type)
	}
	return nil
}

func handleHostCommand(client *Client, session *host.Session, room model.RoomCode, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "assign":
		if len(fields) != 4 {
			return false, fmt.Errorf("usage: assign <name> <category> <role>")
		}
		return false, session.Assign(model.Username(fields[1]), model.RoleRef{
			Category: fields[2],
			Role:     fields[3],
		})

	case "kick":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: kick <name>")
		}
		return false, client.Send(ws.CmdKickPlayer, ws.KickRequest{
			Room:     room,
			Username: model.Username(fields[1]),
		})

	case "reveal":
		return false, session.Reveal()

	case "night":
		role, err := session.AdvanceNight()
		if errors.Is(err, model.ErrNightComplete) {
			fmt.Println("night order complete")
			return false, nil
		}
		if err != nil {
			return false, err
		}
		fmt.Printf("night: %s acts\n", role)
		return false, nil

	case "quit":
		_ = client.Send(ws.CmdLeaveRoom, room)
		return true, nil

	default:
		return false, fmt.Errorf("unknown command %q", fields[0])
	}
}

func parsePool(roles []string) ([]model.RoleRef, error) {
	pool := make([]model.RoleRef, 0, len(roles))
	for _, r := range roles {
		parts := strings.SplitN(r, "/", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid role %q, expected category/role", r)
		}
		pool = append(pool, model.RoleRef{Category: parts[0], Role: parts[1]})
	}
	return pool, nil
}

func hostLogger() *slog.Logger {
	if cfg.Verbose {
		return slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
