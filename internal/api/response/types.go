package response

import (
	"time"

	"github.com/samber/lo"

	"bankroom/internal/model"
	"bankroom/internal/services/identity"
)

// User represents a user in API responses
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:          string(u.PrincipalID),
		Username:    u.Username,
		DisplayName: u.DisplayName,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *identity.Session) AuthResponse {
	return AuthResponse{
		User:         UserFromModel(&s.User),
		SessionToken: s.Token,
	}
}

// Player represents a room member in API responses
type Player struct {
	Handle      string    `json:"handle"`
	PrincipalID string    `json:"principal_id"`
	DisplayName string    `json:"display_name"`
	IsHost      bool      `json:"is_host"`
	Balance     int64     `json:"balance"`
	IsBankrupt  bool      `json:"is_bankrupt,omitempty"`
	JoinedAt    time.Time `json:"joined_at"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p model.Player) Player {
	return Player{
		Handle:      string(p.Handle),
		PrincipalID: string(p.PrincipalID),
		DisplayName: p.DisplayName,
		IsHost:      p.IsHost,
		Balance:     p.Balance,
		IsBankrupt:  p.IsBankrupt,
		JoinedAt:    p.JoinedAt,
	}
}

// Room represents a room in API responses
type Room struct {
	Code        string     `json:"code"`
	Status      string     `json:"status"`
	HostID      string     `json:"host_id"`
	PlayerCount int        `json:"player_count"`
	MaxPlayers  int        `json:"max_players"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
}

// RoomFromModel converts a model.Room to a response Room
func RoomFromModel(r model.Room) Room {
	return Room{
		Code:        string(r.Code),
		Status:      string(r.Status),
		HostID:      string(r.HostID),
		PlayerCount: r.PlayerCount,
		MaxPlayers:  r.MaxPlayers,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		StartedAt:   r.StartedAt,
	}
}

// RoomSnapshot is the merged room plus roster view
type RoomSnapshot struct {
	Room    Room     `json:"room"`
	Players []Player `json:"players"`
}

// SnapshotFromModel converts a model.RoomSnapshot
func SnapshotFromModel(s *model.RoomSnapshot) RoomSnapshot {
	return RoomSnapshot{
		Room: RoomFromModel(s.Room),
		Players: lo.Map(s.Players, func(p model.Player, _ int) Player {
			return PlayerFromModel(p)
		}),
	}
}

// Transaction represents a ledger entry in API responses
type Transaction struct {
	From       string    `json:"from"`
	FromHandle string    `json:"from_handle"`
	To         string    `json:"to"`
	ToHandle   string    `json:"to_handle,omitempty"`
	Amount     int64     `json:"amount"`
	Timestamp  time.Time `json:"timestamp"`
}

// TransactionFromModel converts a model.Transaction
func TransactionFromModel(t model.Transaction) Transaction {
	return Transaction{
		From:       t.From,
		FromHandle: string(t.FromHandle),
		To:         t.To,
		ToHandle:   string(t.ToHandle),
		Amount:     t.Amount,
		Timestamp:  t.Timestamp,
	}
}

// TransactionsFromModel converts a transaction log
func TransactionsFromModel(txs []model.Transaction) []Transaction {
	return lo.Map(txs, func(t model.Transaction, _ int) Transaction {
		return TransactionFromModel(t)
	})
}
