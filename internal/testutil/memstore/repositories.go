package memstore

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/amirhossein-jamali/unit-allocator/internal/domain/entity"
	errs "github.com/amirhossein-jamali/unit-allocator/internal/domain/error"
)

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

type unitRepo struct{ s *Store }

func (r *unitRepo) GetByID(ctx context.Context, id string) (*entity.Unit, error) {
	var out *entity.Unit
	err := r.s.do(ctx, func(d *state) error {
		u, ok := d.units[id]
		if !ok {
			return errs.ErrUnitNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *unitRepo) GetForUpdate(ctx context.Context, id string) (*entity.Unit, error) {
	var out *entity.Unit
	err := r.s.do(ctx, func(d *state) error {
		if err := r.s.unitLockErrs[id]; err != nil {
			return err
		}
		u, ok := d.units[id]
		if !ok {
			return errs.ErrUnitNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r *unitRepo) Create(ctx context.Context, unit *entity.Unit) error {
	return r.s.do(ctx, func(d *state) error {
		if _, ok := d.units[unit.ID]; ok {
			return errs.ErrDuplicateKey
		}
		d.units[unit.ID] = *unit
		return nil
	})
}

func (r *unitRepo) UpdateStatus(ctx context.Context, id string, status entity.UnitStatus, at time.Time) error {
	return r.s.do(ctx, func(d *state) error {
		u, ok := d.units[id]
		if !ok {
			return errs.ErrUnitNotFound
		}
		u.Status = status
		u.UpdatedAt = at
		d.units[id] = u
		return nil
	})
}

func (r *unitRepo) ListIDs(ctx context.Context, projectID string, statuses []entity.UnitStatus) ([]string, error) {
	var ids []string
	err := r.s.do(ctx, func(d *state) error {
		for _, u := range d.units {
			if projectID != "" && u.ProjectID != projectID {
				continue
			}
			if slices.Contains(statuses, u.Status) {
				ids = append(ids, u.ID)
			}
		}
		return nil
	})
	sort.Strings(ids)
	return ids, err
}

func (r *unitRepo) ListIDsWithActiveQueue(ctx context.Context, projectID string) ([]string, error) {
	var ids []string
	err := r.s.do(ctx, func(d *state) error {
		if r.s.queueScanErr != nil {
			return r.s.queueScanErr
		}
		queued := map[string]bool{}
		for _, res := range d.reservations {
			if res.Status == entity.ReservationActive {
				queued[res.UnitID] = true
			}
		}
		for _, u := range d.units {
			if u.ProjectID != projectID || !queued[u.ID] {
				continue
			}
			if u.Status == entity.UnitAvailable || u.Status == entity.UnitReservedBooking {
				ids = append(ids, u.ID)
			}
		}
		return nil
	})
	sort.Strings(ids)
	return ids, err
}

type projectRepo struct{ s *Store }

func (r *projectRepo) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	var out *entity.Project
	err := r.s.do(ctx, func(d *state) error {
		p, ok := d.projects[id]
		if !ok {
			return errs.ErrProjectNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *projectRepo) GetForUpdate(ctx context.Context, id string) (*entity.Project, error) {
	return r.GetByID(ctx, id)
}

func (r *projectRepo) Create(ctx context.Context, project *entity.Project) error {
	return r.s.do(ctx, func(d *state) error {
		if _, ok := d.projects[project.ID]; ok {
			return errs.ErrDuplicateKey
		}
		d.projects[project.ID] = *project
		return nil
	})
}

func (r *projectRepo) Update(ctx context.Context, project *entity.Project) error {
	return r.s.do(ctx, func(d *state) error {
		if _, ok := d.projects[project.ID]; !ok {
			return errs.ErrProjectNotFound
		}
		d.projects[project.ID] = *project
		return nil
	})
}

type reservationRepo struct{ s *Store }

func (r *reservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	return r.s.do(ctx, func(d *state) error {
		for _, existing := range d.reservations {
			if existing.ID == res.ID || existing.Code == res.Code {
				return errs.ErrDuplicateKey
			}
			if res.IsQueued() && existing.IsQueued() &&
				existing.UnitID == res.UnitID && existing.AgentID == res.AgentID {
				return errs.ErrDuplicateKey
			}
		}
		d.reservations[res.ID] = *res
		return nil
	})
}

func (r *reservationRepo) GetByID(ctx context.Context, id string) (*entity.Reservation, error) {
	var out *entity.Reservation
	err := r.s.do(ctx, func(d *state) error {
		res, ok := d.reservations[id]
		if !ok {
			return errs.ErrReservationNotFound
		}
		out = &res
		return nil
	})
	return out, err
}

func (r *reservationRepo) Update(ctx context.Context, res *entity.Reservation) error {
	return r.s.do(ctx, func(d *state) error {
		if _, ok := d.reservations[res.ID]; !ok {
			return errs.ErrReservationNotFound
		}
		d.reservations[res.ID] = *res
		return nil
	})
}

func (r *reservationRepo) filter(ctx context.Context, keep func(d *state, res entity.Reservation) bool) ([]*entity.Reservation, error) {
	var matched []entity.Reservation
	err := r.s.do(ctx, func(d *state) error {
		for _, res := range d.reservations {
			if keep(d, res) {
				matched = append(matched, res)
			}
		}
		return nil
	})
	sortReservations(matched)
	out := make([]*entity.Reservation, 0, len(matched))
	for i := range matched {
		out = append(out, &matched[i])
	}
	return out, err
}

func (r *reservationRepo) FindQueuedByUnitAndAgent(ctx context.Context, unitID, agentID string) (*entity.Reservation, error) {
	found, err := r.filter(ctx, func(_ *state, res entity.Reservation) bool {
		return res.UnitID == unitID && res.AgentID == agentID && res.IsQueued()
	})
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func (r *reservationRepo) CountByUnit(ctx context.Context, unitID string, statuses []entity.ReservationStatus) (int64, error) {
	found, err := r.filter(ctx, func(_ *state, res entity.Reservation) bool {
		return res.UnitID == unitID && slices.Contains(statuses, res.Status)
	})
	return int64(len(found)), err
}

func (r *reservationRepo) NextActive(ctx context.Context, unitID string) (*entity.Reservation, error) {
	found, err := r.filter(ctx, func(_ *state, res entity.Reservation) bool {
		return res.UnitID == unitID && res.Status == entity.ReservationActive
	})
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func (r *reservationRepo) ListQueuedByUnit(ctx context.Context, unitID string) ([]*entity.Reservation, error) {
	return r.filter(ctx, func(_ *state, res entity.Reservation) bool {
		return res.UnitID == unitID && res.IsQueued()
	})
}

func (r *reservationRepo) ListPastExpiry(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	found, err := r.filter(ctx, func(d *state, res entity.Reservation) bool {
		if !res.ReservedUntil.Before(now) {
			return false
		}
		switch res.Status {
		case entity.ReservationYourTurn:
			return true
		case entity.ReservationActive:
			return d.projects[res.ProjectID].Phase != entity.ProjectOpen
		}
		return false
	})
	sort.SliceStable(found, func(i, j int) bool { return found[i].ReservedUntil.Before(found[j].ReservedUntil) })
	return truncate(found, limit), err
}

func (r *reservationRepo) ListPastDepositDeadline(ctx context.Context, now time.Time, limit int) ([]*entity.Reservation, error) {
	found, err := r.filter(ctx, func(_ *state, res entity.Reservation) bool {
		return res.IsPastDepositDeadline(now)
	})
	return truncate(found, limit), err
}

type bookingRepo struct{ s *Store }

func (r *bookingRepo) Create(ctx context.Context, b *entity.Booking) error {
	return r.s.do(ctx, func(d *state) error {
		for _, existing := range d.bookings {
			if existing.ID == b.ID || existing.Code == b.Code {
				return errs.ErrDuplicateKey
			}
		}
		d.bookings[b.ID] = *b
		return nil
	})
}

func (r *bookingRepo) GetByID(ctx context.Context, id string) (*entity.Booking, error) {
	var out *entity.Booking
	err := r.s.do(ctx, func(d *state) error {
		b, ok := d.bookings[id]
		if !ok {
			return errs.ErrBookingNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *bookingRepo) Update(ctx context.Context, b *entity.Booking) error {
	return r.s.do(ctx, func(d *state) error {
		if _, ok := d.bookings[b.ID]; !ok {
			return errs.ErrBookingNotFound
		}
		d.bookings[b.ID] = *b
		return nil
	})
}

func (r *bookingRepo) filter(ctx context.Context, keep func(b entity.Booking) bool) ([]*entity.Booking, error) {
	var matched []entity.Booking
	err := r.s.do(ctx, func(d *state) error {
		for _, b := range d.bookings {
			if keep(b) {
				matched = append(matched, b)
			}
		}
		return nil
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })
	out := make([]*entity.Booking, 0, len(matched))
	for i := range matched {
		out = append(out, &matched[i])
	}
	return out, err
}

func (r *bookingRepo) FindOpenByUnit(ctx context.Context, unitID string) (*entity.Booking, error) {
	found, err := r.ListOpenByUnit(ctx, unitID)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func (r *bookingRepo) ListOpenByUnit(ctx context.Context, unitID string) ([]*entity.Booking, error) {
	return r.filter(ctx, func(b entity.Booking) bool {
		return b.UnitID == unitID && b.IsOpen()
	})
}

func (r *bookingRepo) CountByUnit(ctx context.Context, unitID string, statuses []entity.BookingStatus) (int64, error) {
	found, err := r.filter(ctx, func(b entity.Booking) bool {
		return b.UnitID == unitID && slices.Contains(statuses, b.Status)
	})
	return int64(len(found)), err
}

func (r *bookingRepo) ListPastExpiry(ctx context.Context, now time.Time, limit int) ([]*entity.Booking, error) {
	found, err := r.filter(ctx, func(b entity.Booking) bool {
		return b.IsPastExpiry(now)
	})
	return truncate(found, limit), err
}

type depositRepo struct{ s *Store }

func (r *depositRepo) Create(ctx context.Context, dep *entity.Deposit) error {
	return r.s.do(ctx, func(d *state) error {
		for _, existing := range d.deposits {
			if existing.ID == dep.ID || existing.Code == dep.Code {
				return errs.ErrDuplicateKey
			}
		}
		d.deposits[dep.ID] = *dep
		return nil
	})
}

func (r *depositRepo) GetByID(ctx context.Context, id string) (*entity.Deposit, error) {
	var out *entity.Deposit
	err := r.s.do(ctx, func(d *state) error {
		dep, ok := d.deposits[id]
		if !ok {
			return errs.ErrDepositNotFound
		}
		out = &dep
		return nil
	})
	return out, err
}

func (r *depositRepo) Update(ctx context.Context, dep *entity.Deposit) error {
	return r.s.do(ctx, func(d *state) error {
		if _, ok := d.deposits[dep.ID]; !ok {
			return errs.ErrDepositNotFound
		}
		d.deposits[dep.ID] = *dep
		return nil
	})
}

func (r *depositRepo) filter(ctx context.Context, keep func(dep entity.Deposit) bool) ([]*entity.Deposit, error) {
	var matched []entity.Deposit
	err := r.s.do(ctx, func(d *state) error {
		for _, dep := range d.deposits {
			if keep(dep) {
				matched = append(matched, dep)
			}
		}
		return nil
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })
	out := make([]*entity.Deposit, 0, len(matched))
	for i := range matched {
		out = append(out, &matched[i])
	}
	return out, err
}

func (r *depositRepo) FindOpenByUnit(ctx context.Context, unitID string) (*entity.Deposit, error) {
	found, err := r.ListOpenByUnit(ctx, unitID)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

func (r *depositRepo) ListOpenByUnit(ctx context.Context, unitID string) ([]*entity.Deposit, error) {
	return r.filter(ctx, func(dep entity.Deposit) bool {
		return dep.UnitID == unitID && dep.IsOpen()
	})
}

func (r *depositRepo) CountByUnit(ctx context.Context, unitID string, statuses []entity.DepositStatus) (int64, error) {
	found, err := r.filter(ctx, func(dep entity.Deposit) bool {
		return dep.UnitID == unitID && slices.Contains(statuses, dep.Status)
	})
	return int64(len(found)), err
}

type installmentRepo struct{ s *Store }

func (r *installmentRepo) CreateBatch(ctx context.Context, installments []entity.Installment) error {
	return r.s.do(ctx, func(d *state) error {
		for _, inst := range installments {
			if _, ok := d.installments[inst.ID]; ok {
				return errs.ErrDuplicateKey
			}
		}
		for _, inst := range installments {
			d.installments[inst.ID] = inst
		}
		return nil
	})
}

func (r *installmentRepo) GetByID(ctx context.Context, id string) (*entity.Installment, error) {
	var out *entity.Installment
	err := r.s.do(ctx, func(d *state) error {
		inst, ok := d.installments[id]
		if !ok {
			return errs.ErrInstallmentNotFound
		}
		out = &inst
		return nil
	})
	return out, err
}

func (r *installmentRepo) Update(ctx context.Context, inst *entity.Installment) error {
	return r.s.do(ctx, func(d *state) error {
		if _, ok := d.installments[inst.ID]; !ok {
			return errs.ErrInstallmentNotFound
		}
		d.installments[inst.ID] = *inst
		return nil
	})
}

func (r *installmentRepo) ListByDeposit(ctx context.Context, depositID string) ([]entity.Installment, error) {
	var out []entity.Installment
	err := r.s.do(ctx, func(d *state) error {
		out = d.scheduleOf(depositID)
		return nil
	})
	return out, err
}

func (r *installmentRepo) ListPastDue(ctx context.Context, now time.Time, limit int) ([]entity.Installment, error) {
	var out []entity.Installment
	err := r.s.do(ctx, func(d *state) error {
		for _, inst := range d.installments {
			if inst.IsPastDue(now) {
				out = append(out, inst)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(*out[j].DueDate) })
	return truncate(out, limit), err
}

type sequenceRepo struct{ s *Store }

func (r *sequenceRepo) Increment(ctx context.Context, family entity.CodeFamily) (int64, bool, error) {
	var value int64
	var found bool
	err := r.s.do(ctx, func(d *state) error {
		seq, ok := d.sequences[family]
		if !ok {
			return nil
		}
		seq.Current++
		d.sequences[family] = seq
		value, found = seq.Current, true
		return nil
	})
	return value, found, err
}

func (r *sequenceRepo) Create(ctx context.Context, seq *entity.Sequence) error {
	return r.s.do(ctx, func(d *state) error {
		if _, ok := d.sequences[seq.Family]; ok {
			return errs.ErrDuplicateKey
		}
		d.sequences[seq.Family] = *seq
		return nil
	})
}

func (d *state) codesOf(family entity.CodeFamily) []string {
	var codes []string
	switch family {
	case entity.FamilyReservation:
		for _, r := range d.reservations {
			codes = append(codes, r.Code)
		}
	case entity.FamilyBooking:
		for _, b := range d.bookings {
			codes = append(codes, b.Code)
		}
	case entity.FamilyDeposit:
		for _, dep := range d.deposits {
			codes = append(codes, dep.Code)
		}
	}
	return codes
}

func (r *sequenceRepo) MaxIssuedNumber(ctx context.Context, family entity.CodeFamily) (int64, error) {
	var maxNum int64
	err := r.s.do(ctx, func(d *state) error {
		for _, code := range d.codesOf(family) {
			if n, ok := entity.ParseCodeNumber(family, code); ok && n > maxNum {
				maxNum = n
			}
		}
		return nil
	})
	return maxNum, err
}

func (r *sequenceRepo) CodeExists(ctx context.Context, family entity.CodeFamily, code string) (bool, error) {
	var exists bool
	err := r.s.do(ctx, func(d *state) error {
		exists = slices.Contains(d.codesOf(family), code)
		return nil
	})
	return exists, err
}

type processingLogRepo struct{ s *Store }

func (r *processingLogRepo) Create(ctx context.Context, log *entity.ProcessingLog) error {
	return r.s.do(ctx, func(d *state) error {
		if _, ok := d.logs[log.ID]; ok {
			return errs.ErrDuplicateKey
		}
		stored := *log
		stored.Failures = slices.Clone(log.Failures)
		d.logs[log.ID] = stored
		return nil
	})
}

func (r *processingLogRepo) GetByID(ctx context.Context, id string) (*entity.ProcessingLog, error) {
	var out *entity.ProcessingLog
	err := r.s.do(ctx, func(d *state) error {
		l, ok := d.logs[id]
		if !ok {
			return errs.ErrProcessingLogNotFound
		}
		l.Failures = slices.Clone(l.Failures)
		out = &l
		return nil
	})
	return out, err
}

type settingRepo struct{ s *Store }

func (r *settingRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	var found bool
	err := r.s.do(ctx, func(d *state) error {
		value, found = d.settings[key]
		return nil
	})
	return value, found, err
}

func (r *settingRepo) Set(ctx context.Context, key, value string) error {
	return r.s.do(ctx, func(d *state) error {
		d.settings[key] = value
		return nil
	})
}
