// Package memstore is an in-memory implementation of the persistence ports.
//
// Transactions are serialized by a single store-wide lock held from Begin until Commit or
// Rollback, which is a stricter form of SERIALIZABLE isolation. Rollback restores the snapshot
// taken at Begin. Commit conflicts and row lock failures can be injected to drive the retry
// and failure paths of the use cases.
package memstore

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
	"github.com/amirhossein-jamali/unit-allocator/internal/domain/port/persistence"
)

var errTxClosed = errors.New("memstore: transaction already closed")

type txKey struct{}

type memTx struct {
	store    *Store
	snapshot *state
	done     bool
}

type state struct {
	projects     map[string]entity.Project
	units        map[string]entity.Unit
	reservations map[string]entity.Reservation
	bookings     map[string]entity.Booking
	deposits     map[string]entity.Deposit
	installments map[string]entity.Installment
	sequences    map[entity.CodeFamily]entity.Sequence
	logs         map[string]entity.ProcessingLog
	settings     map[string]string
}

func newState() *state {
	return &state{
		projects:     map[string]entity.Project{},
		units:        map[string]entity.Unit{},
		reservations: map[string]entity.Reservation{},
		bookings:     map[string]entity.Booking{},
		deposits:     map[string]entity.Deposit{},
		installments: map[string]entity.Installment{},
		sequences:    map[entity.CodeFamily]entity.Sequence{},
		logs:         map[string]entity.ProcessingLog{},
		settings:     map[string]string{},
	}
}

func (s *state) clone() *state {
	return &state{
		projects:     maps.Clone(s.projects),
		units:        maps.Clone(s.units),
		reservations: maps.Clone(s.reservations),
		bookings:     maps.Clone(s.bookings),
		deposits:     maps.Clone(s.deposits),
		installments: maps.Clone(s.installments),
		sequences:    maps.Clone(s.sequences),
		logs:         maps.Clone(s.logs),
		settings:     maps.Clone(s.settings),
	}
}

// Store implements persistence.UnitOfWork in memory
type Store struct {
	mu              sync.Mutex
	data            *state
	commitConflicts int
	unitLockErrs    map[string]error
	queueScanErr    error
	commits         int
}

// New creates an empty store
func New() *Store {
	return &Store{
		data:         newState(),
		unitLockErrs: map[string]error{},
	}
}

var _ persistence.UnitOfWork = (*Store)(nil)

func (s *Store) txFrom(ctx context.Context) (*memTx, bool) {
	tx, ok := ctx.Value(txKey{}).(*memTx)
	if !ok || tx.store != s {
		return nil, false
	}
	return tx, true
}

// do runs fn against the live state, taking the store lock unless ctx owns it already
func (s *Store) do(ctx context.Context, fn func(d *state) error) error {
	if tx, ok := s.txFrom(ctx); ok {
		if tx.done {
			return errTxClosed
		}
		return fn(s.data)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Begin takes the store lock and snapshots the state
func (s *Store) Begin(ctx context.Context) (context.Context, error) {
	if s.InTransaction(ctx) {
		return nil, errors.New("memstore: nested transactions are not supported")
	}
	s.mu.Lock()
	tx := &memTx{store: s, snapshot: s.data.clone()}
	return context.WithValue(ctx, txKey{}, tx), nil
}

// Commit releases the store lock. An injected conflict rolls the state back instead.
func (s *Store) Commit(ctx context.Context) error {
	tx, ok := s.txFrom(ctx)
	if !ok || tx.done {
		return errTxClosed
	}
	tx.done = true
	defer s.mu.Unlock()

	if s.commitConflicts > 0 {
		s.commitConflicts--
		s.data = tx.snapshot
		return errs.ErrConcurrentUpdate
	}
	s.commits++
	return nil
}

// Rollback restores the snapshot and releases the store lock
func (s *Store) Rollback(ctx context.Context) error {
	tx, ok := s.txFrom(ctx)
	if !ok || tx.done {
		return nil
	}
	tx.done = true
	s.data = tx.snapshot
	s.mu.Unlock()
	return nil
}

// InTransaction reports whether ctx carries an open transaction of this store
func (s *Store) InTransaction(ctx context.Context) bool {
	tx, ok := s.txFrom(ctx)
	return ok && !tx.done
}

// GetUnitRepository returns the unit repository
func (s *Store) GetUnitRepository(context.Context) persistence.UnitRepository {
	return &unitRepo{s: s}
}

// GetProjectRepository returns the project repository
func (s *Store) GetProjectRepository(context.Context) persistence.ProjectRepository {
	return &projectRepo{s: s}
}

// GetReservationRepository returns the reservation repository
func (s *Store) GetReservationRepository(context.Context) persistence.ReservationRepository {
	return &reservationRepo{s: s}
}

// GetBookingRepository returns the booking repository
func (s *Store) GetBookingRepository(context.Context) persistence.BookingRepository {
	return &bookingRepo{s: s}
}

// GetDepositRepository returns the deposit repository
func (s *Store) GetDepositRepository(context.Context) persistence.DepositRepository {
	return &depositRepo{s: s}
}

// GetInstallmentRepository returns the installment repository
func (s *Store) GetInstallmentRepository(context.Context) persistence.InstallmentRepository {
	return &installmentRepo{s: s}
}

// GetSequenceRepository returns the sequence repository
func (s *Store) GetSequenceRepository(context.Context) persistence.SequenceRepository {
	return &sequenceRepo{s: s}
}

// GetProcessingLogRepository returns the processing log repository
func (s *Store) GetProcessingLogRepository(context.Context) persistence.ProcessingLogRepository {
	return &processingLogRepo{s: s}
}

// GetSettingRepository returns the setting repository
func (s *Store) GetSettingRepository(context.Context) persistence.SettingRepository {
	return &settingRepo{s: s}
}

// InjectCommitConflicts makes the next n commits fail with ErrConcurrentUpdate
func (s *Store) InjectCommitConflicts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitConflicts = n
}

// InjectUnitLockError makes GetForUpdate on the unit fail with err; nil clears it
func (s *Store) InjectUnitLockError(unitID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.unitLockErrs, unitID)
		return
	}
	s.unitLockErrs[unitID] = err
}

// InjectQueueScanError makes ListIDsWithActiveQueue fail with err; nil clears it
func (s *Store) InjectQueueScanError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queueScanErr = err
}

// Commits returns the number of successful commits
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// SeedProject stores a project as is
func (s *Store) SeedProject(p entity.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.projects[p.ID] = p
}

// SeedUnit stores a unit as is
func (s *Store) SeedUnit(u entity.Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.units[u.ID] = u
}

// SeedReservation stores a reservation as is
func (s *Store) SeedReservation(r entity.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.reservations[r.ID] = r
}

// SeedBooking stores a booking as is
func (s *Store) SeedBooking(b entity.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.bookings[b.ID] = b
}

// SeedDeposit stores a deposit as is
func (s *Store) SeedDeposit(d entity.Deposit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.deposits[d.ID] = d
}

// SeedInstallments stores schedule rows as is
func (s *Store) SeedInstallments(rows ...entity.Installment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		s.data.installments[row.ID] = row
	}
}

// SeedSequence stores a counter row
func (s *Store) SeedSequence(seq entity.Sequence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.sequences[seq.Family] = seq
}

// SetSetting stores a raw setting value
func (s *Store) SetSetting(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.settings[key] = value
}

// Unit returns a copy of a stored unit
func (s *Store) Unit(id string) entity.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.units[id]
}

// Project returns a copy of a stored project
func (s *Store) Project(id string) entity.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.projects[id]
}

// Reservation returns a copy of a stored reservation
func (s *Store) Reservation(id string) entity.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.reservations[id]
}

// Booking returns a copy of a stored booking
func (s *Store) Booking(id string) entity.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.bookings[id]
}

// Deposit returns a copy of a stored deposit
func (s *Store) Deposit(id string) entity.Deposit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.deposits[id]
}

// Sequence returns a copy of a counter row
func (s *Store) Sequence(family entity.CodeFamily) (entity.Sequence, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq, ok := s.data.sequences[family]
	return seq, ok
}

// ProcessingLog returns a copy of a stored log
func (s *Store) ProcessingLog(id string) (entity.ProcessingLog, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.data.logs[id]
	return l, ok
}

// Installments returns a deposit's schedule ordered by sequence
func (s *Store) Installments(depositID string) []entity.Installment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.scheduleOf(depositID)
}

// Reservations returns the reservations of a unit in queue order
func (s *Store) Reservations(unitID string) []entity.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Reservation, 0)
	for _, r := range s.data.reservations {
		if r.UnitID == unitID {
			out = append(out, r)
		}
	}
	sortReservations(out)
	return out
}

// Bookings returns the bookings of a unit ordered by creation
func (s *Store) Bookings(unitID string) []entity.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Booking, 0)
	for _, b := range s.data.bookings {
		if b.UnitID == unitID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Deposits returns the deposits of a unit ordered by creation
func (s *Store) Deposits(unitID string) []entity.Deposit {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Deposit, 0)
	for _, d := range s.data.deposits {
		if d.UnitID == unitID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (d *state) scheduleOf(depositID string) []entity.Installment {
	out := make([]entity.Installment, 0)
	for _, inst := range d.installments {
		if inst.DepositID == depositID {
			out = append(out, inst)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

func sortReservations(rs []entity.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Priority != rs[j].Priority {
			return rs[i].Priority < rs[j].Priority
		}
		if !rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
			return rs[i].CreatedAt.Before(rs[j].CreatedAt)
		}
		return rs[i].Code < rs[j].Code
	})
}
