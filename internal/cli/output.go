package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case AuthResult:
		o.printAuthResult(v)
	case Room:
		o.printRoom(v)
	case RoomList:
		o.printRoomList(v)
	case GameState:
		o.printGameState(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// AuthResult combines token and user
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// RoomCreator response type
type RoomCreator struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// RoomPlayer response type
type RoomPlayer struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsReady  bool   `json:"isReady"`
	JoinedAt string `json:"joinedAt"`
}

// Room response type
type Room struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	Status     string       `json:"status"`
	MaxPlayers int          `json:"maxPlayers"`
	CreatedAt  string       `json:"createdAt"`
	Creator    RoomCreator  `json:"creator"`
	Players    []RoomPlayer `json:"players"`
}

// RoomList wraps a list of rooms
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// RoomResult wraps a single room response
type RoomResult struct {
	Room Room `json:"room"`
}

// GameState response type
type GameState struct {
	Started        bool           `json:"started"`
	ActivePlayerID *string        `json:"activePlayerId"`
	Positions      map[string]int `json:"positions"`
	LastDice       *int           `json:"lastDice"`
	Phase          string         `json:"phase"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printUser(u User) {
	fmt.Printf("User: %s (%s)\n", u.Username, u.ID)
	fmt.Printf("Email: %s\n", u.Email)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Printf("Token: %s\n", a.Token)
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room: %s (%s)\n", r.Title, r.ID)
	fmt.Printf("Status: %s\n", r.Status)
	fmt.Printf("Creator: %s\n", r.Creator.Username)
	fmt.Printf("Players (%d/%d):\n", len(r.Players), r.MaxPlayers)
	for _, p := range r.Players {
		readyStr := ""
		if p.IsReady {
			readyStr = " [ready]"
		}
		fmt.Printf("  - %s (%s)%s\n", p.Username, p.UserID, readyStr)
	}
}

func (o *Output) printRoomList(l RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Println("No open rooms")
		return
	}
	for _, r := range l.Rooms {
		fmt.Printf("%s  %-20s  %d/%d players  %s\n", r.ID, r.Title, len(r.Players), r.MaxPlayers, r.Status)
	}
}

func (o *Output) printGameState(g GameState) {
	if !g.Started {
		fmt.Println("Game not started")
		return
	}

	fmt.Printf("Phase: %s\n", g.Phase)
	if g.ActivePlayerID != nil {
		fmt.Printf("Active Player: %s\n", *g.ActivePlayerID)
	}
	if g.LastDice != nil {
		fmt.Printf("Last Dice: %d\n", *g.LastDice)
	}

	ids := make([]string, 0, len(g.Positions))
	for id := range g.Positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Println("Positions:")
	for _, id := range ids {
		fmt.Printf("  %s: %d\n", id, g.Positions[id])
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
