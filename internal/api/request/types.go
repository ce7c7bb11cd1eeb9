package request

// RegisterRequest is the request body for registering a user
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateRoomRequest is the request body for creating a room. The host
// defaults to the caller when omitted.
type CreateRoomRequest struct {
	HostID string `json:"host_id,omitempty"`
}

// JoinRoomRequest is the request body for joining a room. The joining
// principal defaults to the caller when omitted.
type JoinRoomRequest struct {
	PrincipalID string `json:"principal_id,omitempty"`
}

// LeaveRoomRequest is the request body for leaving a room
type LeaveRoomRequest struct {
	PrincipalID string `json:"principal_id,omitempty"`
}

// TransferRequest is the request body for recording a transfer. From
// defaults to the caller when omitted; To is a recipient display name
// or the bank sentinel.
type TransferRequest struct {
	From   string `json:"from,omitempty"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}
