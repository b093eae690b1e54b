package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ravenkeep/townsquare/internal/model"
	"github.com/ravenkeep/townsquare/internal/ws"
)

func newJoinCmd() *cobra.Command {
	var rejoin bool

	cmd := &cobra.Command{
		Use:   "join <room> <username>",
		Short: "Join a room as a player and follow its events",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			room := model.RoomCode(args[0])
			name := model.Username(args[1])

			client, err := Dial(cfg.ServerURL)
			if err != nil {
				return err
			}
			defer client.Close()

			if rejoin {
				err = client.Send(ws.CmdRejoin, ws.RejoinRequest{
					Kind:     model.RejoinPlayer,
					Room:     room,
					Username: name,
				})
			} else {
				err = client.Send(ws.CmdJoinRoom, ws.JoinRequest{
					Room:     room,
					Username: name,
				})
			}
			if err != nil {
				return err
			}

			return followEvents(client)
		},
	}

	cmd.Flags().BoolVar(&rejoin, "rejoin", false, "Reclaim a name held before a disconnect")

	return cmd
}

// followEvents prints server events until the connection ends or the
// player is removed from the room
func followEvents(client *Client) error {
	for {
		ev, err := client.ReadEvent()
		if err != nil {
			return fmt.Errorf("connection lost: %w", err)
		}

		switch ev.Type {
		case model.EventJoined, model.EventReconnectedJoin:
			var payload model.JoinedPayload
			if err := json.Unmarshal(ev.Data, &payload); err != nil {
				continue
			}
			fmt.Printf("joined %s as %s (present: %v)\n", payload.Room, payload.Username, payload.Usernames)

		case model.EventJoinError:
			var msg string
			_ = json.Unmarshal(ev.Data, &msg)
			return fmt.Errorf("%s", msg)

		case model.EventUserJoined:
			var name model.Username
			_ = json.Unmarshal(ev.Data, &name)
			fmt.Printf("%s joined\n", name)

		case model.EventUserLeft:
			var name model.Username
			_ = json.Unmarshal(ev.Data, &name)
			fmt.Printf("%s left\n", name)

		case model.EventAssignedRole:
			var payload model.AssignedRolePayload
			if err := json.Unmarshal(ev.Data, &payload); err != nil {
				continue
			}
			fmt.Printf("your role: %s (%s)\n", payload.Role.Role, payload.Role.Category)
			if len(payload.RoleData) > 1 {
				fmt.Printf("  %s\n", payload.RoleData[1])
			}

		case model.EventRolesRevealed:
			fmt.Println("roles are revealed")

		case model.EventKicked:
			fmt.Println("you were removed from the room")
			return nil

		case model.EventLeftRoom:
			return nil

		default:
			fmt.Printf("event: %s\n", ev.Type)
		}
	}
}
