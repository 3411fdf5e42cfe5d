package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatherly/gatherly/internal/apperr"
	"github.com/gatherly/gatherly/internal/model"
	"github.com/gatherly/gatherly/internal/store"
	"github.com/gatherly/gatherly/internal/ticket"
)

// qrSize is the edge length in pixels of rendered QR symbols.
const qrSize = 256

// Tickets issues ticket tokens for registrations. Tokens are regenerable at
// any time while the registration remains eligible for check-in; the Gate
// re-validates live ledger state on every scan, so a leaked token grants
// nothing the ledger would refuse.
type Tickets struct {
	events store.EventStore
	regs   store.RegistrationStore
	issuer *ticket.Issuer
}

// NewTickets constructs a Tickets service.
func NewTickets(events store.EventStore, regs store.RegistrationStore, issuer *ticket.Issuer) *Tickets {
	return &Tickets{events: events, regs: regs, issuer: issuer}
}

// IssueToken returns a signed token for the registration. Fails with a
// state error once the registration is CANCELLED or NO_SHOW.
func (t *Tickets) IssueToken(ctx context.Context, caller model.Caller, registrationID string) (*model.TicketResponse, error) {
	reg, err := t.authorize(ctx, caller, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.Status == model.StatusCancelled || reg.Status == model.StatusNoShow {
		return nil, apperr.WithState(apperr.KindState, "registration is no longer valid for admission", string(reg.Status))
	}
	token, err := t.issuer.Encode(reg.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &model.TicketResponse{RegistrationID: reg.ID, Token: token}, nil
}

// Resolve verifies a token and returns the registration id it is scoped to.
func (t *Tickets) Resolve(token string) (string, error) {
	regID, err := t.issuer.Decode(token)
	if err != nil {
		return "", apperr.New(apperr.KindInvalidToken, "unrecognized ticket token")
	}
	return regID, nil
}

// QRImage renders the registration's current token as a PNG QR symbol.
func (t *Tickets) QRImage(ctx context.Context, caller model.Caller, registrationID string) ([]byte, error) {
	issued, err := t.IssueToken(ctx, caller, registrationID)
	if err != nil {
		return nil, err
	}
	png, err := t.issuer.QRPNG(issued.Token, qrSize)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	return png, nil
}

// authorize permits the registrant, the event's organizer, or an admin.
func (t *Tickets) authorize(ctx context.Context, caller model.Caller, registrationID string) (model.Registration, error) {
	reg, err := t.regs.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Registration{}, apperr.New(apperr.KindNotFound, "registration not found")
		}
		return model.Registration{}, fmt.Errorf("get registration: %w", err)
	}
	if caller.ID == reg.UserID || caller.IsAdmin() {
		return reg, nil
	}
	ev, err := t.events.GetByID(ctx, reg.EventID)
	if err != nil {
		return model.Registration{}, fmt.Errorf("get event: %w", err)
	}
	if ev.OwnerID != caller.ID {
		return model.Registration{}, apperr.New(apperr.KindPermission, "caller may not access this ticket")
	}
	return reg, nil
}
