package reminderService

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"WhatsappReminder/internal/api/reminder"
	reminderRepository "WhatsappReminder/internal/api/reminder/repository"
	"WhatsappReminder/internal/entity"
	"WhatsappReminder/pkg/utils"
	"WhatsappReminder/pkg/whatsapp/whatsapptest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

type fakeStore struct {
	mu        sync.Mutex
	events    map[int64]*entity.ReminderEvent
	phones    map[int64][]string
	confirmed map[int64]entity.Confirmation
	queryErr  error
	markErr   error
	clientErr error
	closed    int
	opened    int
	lastDates []string
	block     chan struct{}
}

func newFakeStore(events ...entity.ReminderEvent) *fakeStore {
	s := &fakeStore{
		events:    map[int64]*entity.ReminderEvent{},
		phones:    map[int64][]string{},
		confirmed: map[int64]entity.Confirmation{},
	}
	for i := range events {
		ev := events[i]
		s.events[ev.ID] = &ev
		s.phones[ev.ID] = []string{entity.OnlyDigits(ev.ContactPhone)}
	}
	return s
}

func (s *fakeStore) NewClient(context.Context) (reminderRepository.Client, error) {
	if s.clientErr != nil {
		return reminderRepository.Client{}, s.clientErr
	}
	s.mu.Lock()
	s.opened++
	s.mu.Unlock()
	return reminderRepository.Client{
		Reminder: s,
		Close: func() error {
			s.mu.Lock()
			s.closed++
			s.mu.Unlock()
			return nil
		},
	}, nil
}

func (s *fakeStore) GetPendingReminders(_ context.Context, categories []int, dates []string) ([]entity.ReminderEvent, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDates = dates
	if s.queryErr != nil {
		return nil, s.queryErr
	}

	allowed := map[int]bool{}
	for _, c := range categories {
		allowed[c] = true
	}
	dateSet := map[string]bool{}
	for _, d := range dates {
		dateSet[d] = true
	}

	var out []entity.ReminderEvent
	for id := int64(1); id <= int64(len(s.events)+10); id++ {
		ev, ok := s.events[id]
		if !ok || ev.Sent || !allowed[ev.CategoryID] {
			continue
		}
		if !dateSet[entity.OnlyDigits(ev.ScheduledDate)] {
			continue
		}
		out = append(out, *ev)
	}
	return out, nil
}

func (s *fakeStore) GetReminderByID(_ context.Context, id int64) (entity.ReminderEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return entity.ReminderEvent{}, reminder.ErrReminderNotFound
	}
	return *ev, nil
}

func (s *fakeStore) MarkSent(_ context.Context, id int64, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	ev, ok := s.events[id]
	if !ok {
		return reminder.ErrReminderNotFound
	}
	ev.Sent = true
	ev.SentAt = &sentAt
	return nil
}

func (s *fakeStore) ConfirmByID(_ context.Context, id int64, answer entity.Confirmation, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return reminder.ErrReminderNotFound
	}
	ev.Confirmed = string(answer)
	s.confirmed[id] = answer
	return nil
}

func (s *fakeStore) ownedBy(id int64, phones []string) bool {
	for _, owner := range s.phones[id] {
		for _, p := range phones {
			if owner == p {
				return true
			}
		}
	}
	return false
}

func (s *fakeStore) ConfirmByIDForPhone(_ context.Context, id int64, phones []string, answer entity.Confirmation, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok || !s.ownedBy(id, phones) {
		return false, nil
	}
	ev.Confirmed = string(answer)
	s.confirmed[id] = answer
	return true, nil
}

func (s *fakeStore) ConfirmLatestForPhone(_ context.Context, phones []string, date string, answer entity.Confirmation, _ time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *entity.ReminderEvent
	for id, ev := range s.events {
		if !ev.Sent || ev.SentAt == nil || !s.ownedBy(id, phones) || entity.OnlyDigits(ev.ScheduledDate) != date {
			continue
		}
		if best == nil || ev.SentAt.After(*best.SentAt) {
			best = ev
		}
	}
	if best == nil {
		return 0, nil
	}
	best.Confirmed = string(answer)
	s.confirmed[best.ID] = answer
	return best.ID, nil
}

type fixture struct {
	svc     IReminderService
	store   *fakeStore
	gateway *whatsapptest.FakeSender
	now     time.Time
}

func newFixture(t *testing.T, store *fakeStore) *fixture {
	t.Helper()
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	now := time.Date(2025, 3, 10, 13, 30, 0, 0, loc)
	gateway := whatsapptest.NewFakeSender()
	svc := NewReminderService(logger, store, gateway, utils.New(), nil, Config{
		Categories:       DefaultCategories,
		Window:           &entity.Window{Min: 57, Max: 63},
		Location:         loc,
		OperatorNumber:   "573214498302",
		CountryCode:      "57",
		ConfirmationLink: "https://agenda.test/confirm?id={id}",
		Now:              func() time.Time { return now },
	})

	return &fixture{svc: svc, store: store, gateway: gateway, now: now}
}

func appointment(id int64, clock string) entity.ReminderEvent {
	return entity.ReminderEvent{
		ID:            id,
		CategoryID:    1,
		Category:      "Cita médica",
		SubjectName:   "Ana Pérez",
		ContactPhone:  "3001112233",
		ScheduledDate: "20250310",
		ScheduledTime: clock,
	}
}

func TestRunTickSendsEligibleReminder(t *testing.T) {
	f := newFixture(t, newFakeStore(appointment(7, "14:305")))

	result, err := f.svc.RunTick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, reminder.TickResult{Candidates: 1, Eligible: 1, Dispatched: 1}, result)

	sent := f.gateway.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "573001112233", sent[0].To)
	assert.Contains(t, sent[0].Text, "lunes, 10 de marzo de 2025")
	assert.Contains(t, sent[0].Text, "⏰ Hora: 14:30")
	assert.Contains(t, sent[0].Text, "https://agenda.test/confirm?id=7")
	assert.Equal(t, "573214498302", sent[1].To)
	assert.Contains(t, sent[1].Text, "https://wa.me/573001112233")

	ev, err := f.store.GetReminderByID(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, ev.Sent)
	assert.Equal(t, []string{"20250310", "20250311"}, f.store.lastDates)
	assert.Equal(t, f.store.opened, f.store.closed)
}

func TestRunTickNeverResendsSentReminder(t *testing.T) {
	f := newFixture(t, newFakeStore(appointment(7, "14:30")))

	_, err := f.svc.RunTick(context.Background())
	require.NoError(t, err)
	result, err := f.svc.RunTick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Candidates)
	assert.Len(t, f.gateway.Sent(), 2)
}

func TestRunTickWindowBounds(t *testing.T) {
	// now is 13:30, so 14:26 is 56 minutes away and 14:34 is 64.
	f := newFixture(t, newFakeStore(
		appointment(1, "14:26"),
		appointment(2, "14:27"),
		appointment(3, "14:33"),
		appointment(4, "14:34"),
	))

	result, err := f.svc.RunTick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Candidates)
	assert.Equal(t, 2, result.Eligible)
	assert.Equal(t, 2, result.Dispatched)

	for id, want := range map[int64]bool{1: false, 2: true, 3: true, 4: false} {
		ev, err := f.store.GetReminderByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, ev.Sent, "reminder %d", id)
	}
}

func TestRunTickSkipsRowWithoutPhone(t *testing.T) {
	noPhone := appointment(1, "14:30")
	noPhone.ContactPhone = ""
	f := newFixture(t, newFakeStore(noPhone, appointment(2, "14:30")))

	result, err := f.svc.RunTick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Dispatched)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, f.gateway.Sent(), 2)
}

func TestRunTickCustomerFailureDoesNotMarkOrAbort(t *testing.T) {
	second := appointment(2, "14:30")
	second.ContactPhone = "3004445566"
	f := newFixture(t, newFakeStore(appointment(1, "14:30"), second))
	f.gateway.FailText = func(to, _ string) error {
		if to == "573001112233" {
			return errors.New("send failed")
		}
		return nil
	}

	result, err := f.svc.RunTick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Dispatched)

	first, _ := f.store.GetReminderByID(context.Background(), 1)
	assert.False(t, first.Sent)
	other, _ := f.store.GetReminderByID(context.Background(), 2)
	assert.True(t, other.Sent)
}

func TestRunTickOperatorFailureKeepsSentFlag(t *testing.T) {
	f := newFixture(t, newFakeStore(appointment(1, "14:30")))
	f.gateway.FailText = func(to, _ string) error {
		if to == "573214498302" {
			return errors.New("operator offline")
		}
		return nil
	}

	result, err := f.svc.RunTick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Dispatched)
	ev, _ := f.store.GetReminderByID(context.Background(), 1)
	assert.True(t, ev.Sent)
}

func TestRunTickRecoversPanickingRow(t *testing.T) {
	second := appointment(2, "14:30")
	second.ContactPhone = "3004445566"
	f := newFixture(t, newFakeStore(appointment(1, "14:30"), second))
	f.gateway.FailText = func(to, _ string) error {
		if to == "573001112233" {
			panic("gateway exploded")
		}
		return nil
	}

	result, err := f.svc.RunTick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Dispatched)
	assert.Equal(t, 1, result.Failed)
}

func TestRunTickStoreErrorAbortsAndReleasesConnection(t *testing.T) {
	store := newFakeStore(appointment(1, "14:30"))
	store.queryErr = errors.New("connection refused")
	f := newFixture(t, store)

	_, err := f.svc.RunTick(context.Background())
	assert.ErrorIs(t, err, reminder.ErrStoreUnavailable)
	assert.Empty(t, f.gateway.Sent())
	assert.Equal(t, 1, store.closed)

	store.queryErr = nil
	result, err := f.svc.RunTick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Dispatched)
}

func TestRunTickMarkFailureAbortsTick(t *testing.T) {
	second := appointment(2, "14:30")
	second.ContactPhone = "3004445566"
	store := newFakeStore(appointment(1, "14:30"), second)
	store.markErr = errors.New("write failed")
	f := newFixture(t, store)

	_, err := f.svc.RunTick(context.Background())
	assert.ErrorIs(t, err, reminder.ErrStoreUnavailable)
	assert.Len(t, f.gateway.Sent(), 1)
	assert.Equal(t, 1, store.closed)
}

func TestRunTickVanishedRowFailsOnlyThatRow(t *testing.T) {
	second := appointment(2, "14:30")
	second.ContactPhone = "3004445566"
	store := newFakeStore(appointment(1, "14:30"), second)
	store.markErr = reminder.ErrReminderNotFound
	f := newFixture(t, store)

	result, err := f.svc.RunTick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, reminder.TickResult{Candidates: 2, Eligible: 2, Failed: 2}, result)
	assert.Len(t, f.gateway.SentTo("573001112233"), 1)
	assert.Len(t, f.gateway.SentTo("573004445566"), 1)
	assert.Empty(t, f.gateway.SentTo("573214498302"))
	assert.Equal(t, 1, store.closed)
}

func TestRunTickHonoursZeroWidthWindow(t *testing.T) {
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()
	now := time.Date(2025, 3, 10, 13, 30, 0, 0, loc)

	store := newFakeStore(appointment(1, "13:30"), appointment(2, "14:30"))
	gateway := whatsapptest.NewFakeSender()
	svc := NewReminderService(logger, store, gateway, utils.New(), nil, Config{
		Categories:     DefaultCategories,
		Window:         &entity.Window{Min: 0, Max: 0},
		Location:       loc,
		OperatorNumber: "573214498302",
		CountryCode:    "57",
		Now:            func() time.Time { return now },
	})

	result, err := svc.RunTick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Eligible)

	ev, err := store.GetReminderByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ev.Sent)
	ev, err = store.GetReminderByID(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, ev.Sent)
}

func TestNewReminderServiceWarnsWithoutOperator(t *testing.T) {
	logger, hook := test.NewNullLogger()

	NewReminderService(logger, newFakeStore(), whatsapptest.NewFakeSender(), utils.New(), nil, Config{})
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Message, "operator number")

	hook.Reset()
	NewReminderService(logger, newFakeStore(), whatsapptest.NewFakeSender(), utils.New(), nil, Config{OperatorNumber: "573214498302"})
	assert.Empty(t, hook.AllEntries())
}

func TestRunTickDoesNotOverlap(t *testing.T) {
	store := newFakeStore(appointment(1, "14:30"))
	store.block = make(chan struct{})
	f := newFixture(t, store)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.RunTick(context.Background())
		done <- err
	}()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.opened == 1
	}, time.Second, 5*time.Millisecond)

	_, err := f.svc.RunTick(context.Background())
	assert.ErrorIs(t, err, reminder.ErrTickInProgress)

	close(store.block)
	require.NoError(t, <-done)
	assert.Len(t, f.gateway.SentTo("573001112233"), 1)
}

func TestHandleConfirmationLatestReminder(t *testing.T) {
	f := newFixture(t, newFakeStore(appointment(1, "14:30")))
	_, err := f.svc.RunTick(context.Background())
	require.NoError(t, err)

	handled, err := f.svc.HandleConfirmation(context.Background(), "573001112233@s.whatsapp.net", "Sí")
	require.NoError(t, err)
	assert.True(t, handled)

	assert.Equal(t, entity.ConfirmationYes, f.store.confirmed[1])
	acks := f.gateway.SentTo("573001112233")
	assert.Equal(t, reminder.AckConfirmed, acks[len(acks)-1].Text)
}

func TestHandleConfirmationPicksMostRecentlySent(t *testing.T) {
	store := newFakeStore(appointment(1, "14:30"), appointment(2, "16:00"))
	f := newFixture(t, store)
	earlier := f.now.Add(-2 * time.Hour)
	later := f.now.Add(-time.Minute)
	store.events[1].Sent, store.events[1].SentAt = true, &earlier
	store.events[2].Sent, store.events[2].SentAt = true, &later

	handled, err := f.svc.HandleConfirmation(context.Background(), "573001112233@s.whatsapp.net", "no")
	require.NoError(t, err)
	assert.True(t, handled)

	assert.Equal(t, map[int64]entity.Confirmation{2: entity.ConfirmationNo}, store.confirmed)
	assert.Equal(t, reminder.AckDeclined, f.gateway.Sent()[0].Text)
}

func TestHandleConfirmationWithReference(t *testing.T) {
	store := newFakeStore(appointment(1, "14:30"), appointment(2, "16:00"))
	f := newFixture(t, store)

	handled, err := f.svc.HandleConfirmation(context.Background(), "573001112233@s.whatsapp.net", "SI #1")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, map[int64]entity.Confirmation{1: entity.ConfirmationYes}, store.confirmed)
}

func TestHandleConfirmationReferenceOfAnotherContact(t *testing.T) {
	store := newFakeStore(appointment(1, "14:30"))
	f := newFixture(t, store)

	handled, err := f.svc.HandleConfirmation(context.Background(), "573009998877@s.whatsapp.net", "SI 1")
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, store.confirmed)
	assert.Empty(t, f.gateway.Sent())
}

func TestHandleConfirmationIgnoresOtherText(t *testing.T) {
	store := newFakeStore()
	f := newFixture(t, store)

	handled, err := f.svc.HandleConfirmation(context.Background(), "573001112233@s.whatsapp.net", "si estoy interesado")
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Zero(t, store.opened)
}

func TestHandleConfirmationWithoutSentReminder(t *testing.T) {
	f := newFixture(t, newFakeStore(appointment(1, "14:30")))

	handled, err := f.svc.HandleConfirmation(context.Background(), "573001112233@s.whatsapp.net", "SI")
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, f.gateway.Sent())
}

func TestConfirmFromLink(t *testing.T) {
	f := newFixture(t, newFakeStore(appointment(5, "14:30")))

	resp, err := f.svc.ConfirmFromLink(context.Background(), 5, "si")
	require.NoError(t, err)
	assert.Equal(t, "SI", resp.Confirmed)
	assert.Equal(t, "lunes, 10 de marzo de 2025", resp.FormattedDate)

	_, err = f.svc.ConfirmFromLink(context.Background(), 5, "maybe")
	assert.ErrorIs(t, err, reminder.ErrInvalidAnswer)

	_, err = f.svc.ConfirmFromLink(context.Background(), 99, "no")
	assert.ErrorIs(t, err, reminder.ErrReminderNotFound)
}

func TestCandidatePhones(t *testing.T) {
	assert.Equal(t, []string{"3001112233", "573001112233"}, candidatePhones("573001112233", "57"))
	assert.Equal(t, []string{"3001112233"}, candidatePhones("3001112233", "57"))
}
