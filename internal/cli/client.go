package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/ravenkeep/townsquare/internal/host"
	"github.com/ravenkeep/townsquare/internal/model"
	"github.com/ravenkeep/townsquare/internal/ws"
)

// Event is a server-to-client frame with its payload still raw, so
// each command can decode the shape it expects
type Event struct {
	Type model.EventType `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client is a websocket connection to the coordinator
type Client struct {
	conn    *websocket.Conn
	baseURL *url.URL
}

// Dial connects to the server's websocket endpoint. Accepts http(s)
// URLs and rewrites the scheme.
func Dial(serverURL string) (*Client, error) {
	base, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	wsURL := *base
	switch wsURL.Scheme {
	case "http":
		wsURL.Scheme = "ws"
	case "https":
		wsURL.Scheme = "wss"
	}
	wsURL.Path = "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", wsURL.String(), err)
	}

	return &Client{conn: conn, baseURL: base}, nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send writes one command frame
func (c *Client) Send(cmdType string, data any) error {
	env := ws.Envelope{Type: cmdType}
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return err
		}
		env.Data = payload
	}
	return c.conn.WriteJSON(env)
}

// ReadEvent blocks until the next server frame arrives
func (c *Client) ReadEvent() (*Event, error) {
	var ev Event
	if err := c.conn.ReadJSON(&ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// FetchEdition retrieves edition content over the server's HTTP
// surface
func (c *Client) FetchEdition(name string) (*model.Edition, error) {
	editionURL := *c.baseURL
	editionURL.Path = fmt.Sprintf("/editions/%s.json", name)

	resp, err := http.Get(editionURL.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, model.ErrEditionNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching edition: status %d", resp.StatusCode)
	}

	var edition model.Edition
	if err := json.NewDecoder(resp.Body).Decode(&edition); err != nil {
		return nil, err
	}
	return &edition, nil
}

var _ host.Emitter = (*Client)(nil)

// AssignRole sends an assign-role command on the host's behalf
func (c *Client) AssignRole(room model.RoomCode, name model.Username, role model.RoleRef, roleData model.RoleData) error {
	return c.Send(ws.CmdAssignRole, ws.AssignRoleRequest{
		Room:     room,
		Username: name,
		Role:     role,
		RoleData: roleData,
	})
}

// RevealRoles sends a reveal-roles command
func (c *Client) RevealRoles(room model.RoomCode) error {
	return c.Send(ws.CmdRevealRoles, room)
}
