package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/samber/lo"
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
	case RoomSnapshot:
		o.printRoomSnapshot(v)
	case Transaction:
		o.printTransaction(v)
	case []Transaction:
		o.printTransactions(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// AuthResult combines user and token
type AuthResult struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
}

// Room response type
type Room struct {
	Code        string     `json:"code"`
	Status      string     `json:"status"`
	HostID      string     `json:"host_id"`
	PlayerCount int        `json:"player_count"`
	MaxPlayers  int        `json:"max_players"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
}

// Player response type
type Player struct {
	Handle      string `json:"handle"`
	PrincipalID string `json:"principal_id"`
	DisplayName string `json:"display_name"`
	IsHost      bool   `json:"is_host"`
	Balance     int64  `json:"balance"`
}

// RoomSnapshot response type
type RoomSnapshot struct {
	Room    Room     `json:"room"`
	Players []Player `json:"players"`
}

// Transaction response type
type Transaction struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Amount    int64     `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printUser(u User) {
	fmt.Printf("User: %s (%s)\n", u.DisplayName, u.ID)
	fmt.Printf("Username: %s\n", u.Username)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printRoomSnapshot(s RoomSnapshot) {
	fmt.Printf("Room: %s\n", s.Room.Code)
	fmt.Printf("Status: %s\n", s.Room.Status)
	fmt.Printf("Players (%d/%d):\n", s.Room.PlayerCount, s.Room.MaxPlayers)
	for _, p := range s.Players {
		hostStr := ""
		if p.IsHost {
			hostStr = " [host]"
		}
		fmt.Printf("  - %s (%s) - $%d%s\n", p.DisplayName, p.Handle, p.Balance, hostStr)
	}
	if s.Room.StartedAt != nil {
		fmt.Printf("Started: %s\n", s.Room.StartedAt.Format(time.RFC3339))
	}
}

func (o *Output) printTransaction(t Transaction) {
	fmt.Printf("[%s] %s -> %s: $%d\n", t.Timestamp.Format("15:04:05"), t.From, t.To, t.Amount)
}

func (o *Output) printTransactions(txs []Transaction) {
	if len(txs) == 0 {
		fmt.Println("No transactions")
		return
	}
	total := lo.SumBy(txs, func(t Transaction) int64 { return t.Amount })
	fmt.Printf("Transactions (%d, $%d total):\n", len(txs), total)
	for _, t := range txs {
		fmt.Print("  ")
		o.printTransaction(t)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
