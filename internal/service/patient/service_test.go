package patient

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medivet/vetcare-api/internal/model"
	"github.com/medivet/vetcare-api/pkg/clock"
	apperrors "github.com/medivet/vetcare-api/pkg/errors"
	"github.com/medivet/vetcare-api/pkg/logger"
)

type store struct {
	patients map[uuid.UUID]*model.Patient
	notes    map[uuid.UUID][]*model.Note
	users    map[uuid.UUID]*model.User

	patientGets int
}

type fakePatientRepo struct{ s *store }

func (r *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	r.s.patients[p.ID] = p
	return nil
}

func (r *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	r.s.patientGets++
	p, ok := r.s.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	copied := *p
	return &copied, nil
}

func (r *fakePatientRepo) Update(_ context.Context, p *model.Patient) error {
	if _, ok := r.s.patients[p.ID]; !ok {
		return apperrors.NotFound("patient", nil)
	}
	r.s.patients[p.ID] = p
	return nil
}

func (r *fakePatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.patients[id]; !ok {
		return apperrors.NotFound("patient", nil)
	}
	delete(r.s.patients, id)
	delete(r.s.notes, id)
	return nil
}

func (r *fakePatientRepo) List(_ context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	var out []*model.Patient
	for _, p := range r.s.patients {
		if filters != nil && filters.Species != "" && p.Species != filters.Species {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePatientRepo) AddNote(_ context.Context, n *model.Note) error {
	r.s.notes[n.PatientID] = append(r.s.notes[n.PatientID], n)
	return nil
}

func (r *fakePatientRepo) ListNotes(_ context.Context, patientID uuid.UUID) ([]*model.Note, error) {
	return r.s.notes[patientID], nil
}

type fakeTreatmentRepo struct{}

func (r *fakeTreatmentRepo) CreateWithDoses(context.Context, *model.Treatment, []*model.Dose) error {
	return nil
}
func (r *fakeTreatmentRepo) Get(context.Context, uuid.UUID) (*model.Treatment, error) {
	return nil, apperrors.NotFound("treatment", nil)
}
func (r *fakeTreatmentRepo) Update(context.Context, *model.Treatment) error { return nil }
func (r *fakeTreatmentRepo) Delete(context.Context, uuid.UUID) error        { return nil }
func (r *fakeTreatmentRepo) ListByPatient(context.Context, uuid.UUID) ([]*model.Treatment, error) {
	return nil, nil
}
func (r *fakeTreatmentRepo) CancelWithDoses(context.Context, uuid.UUID, time.Time) error {
	return nil
}

type fakeUserRepo struct{ s *store }

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	r.s.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", nil)
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(context.Context, string) (*model.User, error) {
	return nil, apperrors.NotFound("user", nil)
}
func (r *fakeUserRepo) GetAdmin(context.Context) (*model.User, error) {
	return nil, apperrors.NotFound("admin user", nil)
}
func (r *fakeUserRepo) Update(context.Context, *model.User) error { return nil }
func (r *fakeUserRepo) List(context.Context, string) ([]*model.User, error) {
	return nil, nil
}

type fixture struct {
	store   *store
	service *Service
	clock   *clock.Mock

	caretaker uuid.UUID
	vet       uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := &store{
		patients: make(map[uuid.UUID]*model.Patient),
		notes:    make(map[uuid.UUID][]*model.Note),
		users:    make(map[uuid.UUID]*model.User),
	}

	caretaker := &model.User{
		Base:   model.Base{ID: uuid.New()},
		Role:   model.RoleAssistant,
		Status: model.UserStatusActive,
		Phone:  "+15550000002",
	}
	vet := &model.User{
		Base:   model.Base{ID: uuid.New()},
		Role:   model.RoleVet,
		Status: model.UserStatusActive,
	}
	s.users[caretaker.ID] = caretaker
	s.users[vet.ID] = vet

	clk := clock.NewMock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	log := logger.New(&logger.Config{Level: logger.ErrorLevel, TimeFormat: time.RFC3339, Output: io.Discard})
	svc := NewService(&fakePatientRepo{s}, &fakeTreatmentRepo{}, &fakeUserRepo{s}, clk, log)

	return &fixture{store: s, service: svc, clock: clk, caretaker: caretaker.ID, vet: vet.ID}
}

func (f *fixture) createPatient(t *testing.T) *model.Patient {
	t.Helper()
	p, err := f.service.CreatePatient(context.Background(), &model.CreatePatientRequest{
		Name:        "Luna",
		Species:     "cat",
		CaretakerID: f.caretaker.String(),
	}, f.vet)
	require.NoError(t, err)
	return p
}

func TestCreatePatient(t *testing.T) {
	f := newFixture(t)

	p := f.createPatient(t)

	assert.Equal(t, "Luna", p.Name)
	assert.Equal(t, f.caretaker, p.CaretakerID)
	assert.Equal(t, f.vet, p.CreatedBy)
	assert.Contains(t, f.store.patients, p.ID)
}

func TestCreatePatientRejectsNonAssistantCaretaker(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreatePatient(context.Background(), &model.CreatePatientRequest{
		Name:        "Luna",
		Species:     "cat",
		CaretakerID: f.vet.String(),
	}, f.vet)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.Code(err))
	assert.Empty(t, f.store.patients)
}

func TestCreatePatientRejectsUnknownCaretaker(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreatePatient(context.Background(), &model.CreatePatientRequest{
		Name:        "Luna",
		Species:     "cat",
		CaretakerID: uuid.NewString(),
	}, f.vet)

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.Code(err))
}

func TestGetPatientAttachesNotes(t *testing.T) {
	f := newFixture(t)
	p := f.createPatient(t)

	_, err := f.service.AddNote(context.Background(), p.ID, &model.CreateNoteRequest{Content: "ate well"}, f.vet)
	require.NoError(t, err)

	got, err := f.service.GetPatient(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, got.Notes, 1)
	assert.Equal(t, "ate well", got.Notes[0].Content)
}

func TestGetPatientCachesReads(t *testing.T) {
	f := newFixture(t)
	p := f.createPatient(t)

	_, err := f.service.GetPatient(context.Background(), p.ID)
	require.NoError(t, err)
	first := f.store.patientGets

	_, err = f.service.GetPatient(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, first, f.store.patientGets)
}

func TestUpdatePatientEvictsCache(t *testing.T) {
	f := newFixture(t)
	p := f.createPatient(t)

	// prime the cache
	_, err := f.service.GetPatient(context.Background(), p.ID)
	require.NoError(t, err)

	newName := "Max"
	_, err = f.service.UpdatePatient(context.Background(), p.ID, &model.UpdatePatientRequest{Name: &newName})
	require.NoError(t, err)

	got, err := f.service.GetPatient(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Max", got.Name)
}

func TestUpdatePatientRejectsNonAssistantCaretaker(t *testing.T) {
	f := newFixture(t)
	p := f.createPatient(t)

	badCaretaker := f.vet.String()
	_, err := f.service.UpdatePatient(context.Background(), p.ID, &model.UpdatePatientRequest{CaretakerID: &badCaretaker})

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrBadRequest, apperrors.Code(err))
}

func TestDeletePatient(t *testing.T) {
	f := newFixture(t)
	p := f.createPatient(t)

	require.NoError(t, f.service.DeletePatient(context.Background(), p.ID))

	_, err := f.service.GetPatient(context.Background(), p.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDeletePatientAbsent(t *testing.T) {
	f := newFixture(t)

	err := f.service.DeletePatient(context.Background(), uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAddNoteToAbsentPatient(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.AddNote(context.Background(), uuid.New(), &model.CreateNoteRequest{Content: "x"}, f.vet)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListPatientsFiltersSpecies(t *testing.T) {
	f := newFixture(t)
	f.createPatient(t)

	cats, err := f.service.ListPatients(context.Background(), &model.PatientFilters{Species: "cat"})
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	dogs, err := f.service.ListPatients(context.Background(), &model.PatientFilters{Species: "dog"})
	require.NoError(t, err)
	assert.Empty(t, dogs)
}
