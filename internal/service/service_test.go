package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/gatherly/internal/audit"
	"github.com/gatherly/gatherly/internal/model"
	"github.com/gatherly/gatherly/internal/store/memory"
	"github.com/gatherly/gatherly/internal/ticket"
)

var (
	organizer = model.Caller{ID: "org-1", Role: model.RoleEventOwner, Name: "Olive Organizer", Email: "olive@example.com"}
	moderator = model.Caller{ID: "adm-1", Role: model.RoleAdmin, Name: "Max Moderator", Email: "max@example.com"}
	alice     = model.Caller{ID: "user-a", Role: model.RoleUser, Name: "Alice", Email: "alice@example.com"}
	bob       = model.Caller{ID: "user-b", Role: model.RoleUser, Name: "Bob", Email: "bob@example.com"}
)

// fixture wires all services over the in-memory stores with a pinned clock.
type fixture struct {
	events    *memory.EventStore
	regs      *memory.RegistrationStore
	favs      *memory.FavoriteStore
	trail     *audit.InMemoryStore
	catalog   *Catalog
	ledger    *Ledger
	gate      *Gate
	tickets   *Tickets
	history   *History
	favorites *Favorites
	clock     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		events: memory.NewEventStore(),
		regs:   memory.NewRegistrationStore(),
		favs:   memory.NewFavoriteStore(),
		trail:  audit.NewInMemoryStore(),
		clock:  time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return f.clock }
	recorder := audit.NewRecorder(f.trail)
	issuer := ticket.NewIssuer("test-signing-key", "gatherly-test")

	f.catalog = NewCatalog(f.events, f.regs, recorder, nil)
	f.catalog.now = now
	f.ledger = NewLedger(f.events, f.regs, recorder, nil)
	f.ledger.now = now
	f.gate = NewGate(f.events, f.regs, issuer, recorder, nil)
	f.gate.now = now
	f.tickets = NewTickets(f.events, f.regs, issuer)
	f.history = NewHistory(f.events, f.regs, recorder)
	f.favorites = NewFavorites(f.events, f.favs)
	f.favorites.now = now
	return f
}

// advance moves the pinned clock forward.
func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

// approvedEvent seeds an APPROVED event starting in an hour with the given
// capacity.
func (f *fixture) approvedEvent(t *testing.T, capacity int) model.Event {
	t.Helper()
	return f.eventInStatus(t, capacity, model.EventApproved)
}

func (f *fixture) eventInStatus(t *testing.T, capacity int, status model.EventStatus) model.Event {
	t.Helper()
	ev := model.Event{
		ID:              uuid.New().String(),
		Title:           "Go Meetup",
		Category:        "tech",
		Location:        "Lyon",
		DateStart:       f.clock.Add(time.Hour),
		DateEnd:         f.clock.Add(3 * time.Hour),
		MaxParticipants: capacity,
		Status:          status,
		OwnerID:         organizer.ID,
		CreatedAt:       f.clock,
		UpdatedAt:       f.clock,
	}
	require.NoError(t, f.events.Insert(context.Background(), ev))
	return ev
}

// register seeds a REGISTERED ledger entry for the caller.
func (f *fixture) register(t *testing.T, caller model.Caller, eventID string) model.Registration {
	t.Helper()
	reg, err := f.ledger.Register(context.Background(), caller, eventID)
	require.NoError(t, err)
	return *reg
}
