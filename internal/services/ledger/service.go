package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"bankroom/internal/dependencies/clock"
	"bankroom/internal/model"
	"bankroom/internal/storage"
)

// TransferRequest describes a transfer between members of a room. To
// is a recipient display name, or the bank sentinel for payments out
// of the game.
type TransferRequest struct {
	From   model.PrincipalID
	To     string
	Amount int64
}

// Service applies transfers against room balances and records them in
// the transaction log
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates a new ledger Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		clock:   clock,
		logger:  logger,
	}
}

// Transfer moves funds from a member to another member or to the bank.
// Debit, credit and the log entry commit atomically; on any failure no
// balance changes and nothing is logged. A zero or negative amount is
// rejected outright.
func (s *Service) Transfer(ctx context.Context, caller model.PrincipalID, code model.RoomCode, req TransferRequest) (*model.Transaction, error) {
	if caller == "" {
		return nil, model.ErrUnauthenticated
	}
	if code == "" {
		return nil, fmt.Errorf("%w: room code is required", model.ErrInvalidArgument)
	}
	if req.From == "" {
		return nil, fmt.Errorf("%w: sender is required", model.ErrInvalidArgument)
	}
	if req.To == "" {
		return nil, fmt.Errorf("%w: recipient is required", model.ErrInvalidArgument)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", model.ErrInvalidArgument)
	}

	now := s.clock.Now()
	var recorded model.Transaction

	err := s.storage.MutateRoom(ctx, code, func(txn *storage.RoomTxn) error {
		if txn.Room() == nil {
			return model.ErrRoomNotFound
		}

		sender, ok := txn.PlayerByPrincipal(req.From)
		if !ok {
			return model.ErrSenderNotFound
		}
		if sender.Balance < req.Amount {
			return model.ErrInsufficientFunds
		}

		recorded = model.Transaction{
			From:       sender.DisplayName,
			FromHandle: sender.Handle,
			To:         req.To,
			Amount:     req.Amount,
			Timestamp:  now,
		}

		if req.To == model.BankRecipient {
			sender.Balance -= req.Amount
			txn.PutPlayer(sender)
		} else {
			receiver, ok := txn.PlayerByName(req.To)
			if !ok {
				return model.ErrReceiverNotFound
			}
			recorded.ToHandle = receiver.Handle

			sender.Balance -= req.Amount
			if receiver.Handle == sender.Handle {
				// Self-transfer nets to zero but is still recorded.
				sender.Balance += req.Amount
				txn.PutPlayer(sender)
			} else {
				receiver.Balance += req.Amount
				txn.PutPlayer(sender)
				txn.PutPlayer(receiver)
			}
		}

		txn.AppendTransaction(recorded)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer recorded",
		"code", code,
		"from", recorded.From,
		"to", recorded.To,
		"amount", recorded.Amount)
	return &recorded, nil
}

// History returns the room's transaction log in append order
func (s *Service) History(ctx context.Context, caller model.PrincipalID, code model.RoomCode) ([]model.Transaction, error) {
	if caller == "" {
		return nil, model.ErrUnauthenticated
	}
	if code == "" {
		return nil, fmt.Errorf("%w: room code is required", model.ErrInvalidArgument)
	}

	if _, err := s.storage.GetRoom(ctx, code); err != nil {
		return nil, err
	}
	return s.storage.GetTransactions(ctx, code)
}
