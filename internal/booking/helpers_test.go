package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	redisclient "github.com/smileworks/dental-booking-service/internal/redis"
	"github.com/smileworks/dental-booking-service/internal/store"
)

type testEnv struct {
	store *store.MemoryStore
	repo  *Repository
	svc   *Service
}

// newTestService wires a Service onto the in-memory store with no locking:
// the conditional slot update carries the concurrency guarantees under test.
func newTestService(t *testing.T) (*Service, *testEnv) {
	t.Helper()

	st := store.NewMemoryStore()
	repo := NewRepository(st)
	svc := NewService(repo, redisclient.PassthroughLocker{}, zap.NewNop())

	return svc, &testEnv{store: st, repo: repo, svc: svc}
}

func (e *testEnv) addDentist(t *testing.T, first, last string) string {
	t.Helper()
	id, err := e.store.Insert(context.Background(), store.CollectionDentists, Dentist{
		FirstName:      first,
		LastName:       last,
		Specialization: "General Dentistry",
	})
	require.NoError(t, err)
	return id
}

func (e *testEnv) addSlot(t *testing.T, slot AvailabilitySlot) string {
	t.Helper()
	id, err := e.store.Insert(context.Background(), store.CollectionAvailability, slot)
	require.NoError(t, err)
	return id
}

func (e *testEnv) addAppointment(t *testing.T, appt Appointment) string {
	t.Helper()
	id, err := e.store.Insert(context.Background(), store.CollectionAppointments, appt)
	require.NoError(t, err)
	return id
}

func (e *testEnv) getSlot(t *testing.T, id string) AvailabilitySlot {
	t.Helper()
	slot, err := e.repo.GetSlot(context.Background(), id)
	require.NoError(t, err)
	return *slot
}

func (e *testEnv) getAppointment(t *testing.T, id string) Appointment {
	t.Helper()
	appt, err := e.repo.GetAppointment(context.Background(), id)
	require.NoError(t, err)
	return *appt
}
