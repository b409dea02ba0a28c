package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"carpool-api/internal/apperror"
	"carpool-api/internal/data/entity"

	"github.com/google/uuid"
)

// ==== USERS ====

type userRepo struct{ s *Store }

func cloneUser(u *entity.User) *entity.User {
	c := *u
	return &c
}

func (r userRepo) Create(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperror.Duplicate("email %s is already registered", user.Email)
		}
	}
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r userRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if u, ok := r.s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r userRepo) Update(_ context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.users[user.ID]
	if !ok {
		return apperror.NotFound("user %s not found", user.ID)
	}
	c := cloneUser(user)
	c.Email = existing.Email
	c.Role = existing.Role
	c.CreatedAt = existing.CreatedAt
	r.s.users[user.ID] = c
	return nil
}

// ==== SESSIONS ====

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(_ context.Context, session *entity.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *session
	r.s.sessions[session.TokenID] = &c
	return nil
}

func (r sessionRepo) FindValid(_ context.Context, tokenID uuid.UUID) (*entity.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[tokenID]
	if !ok || sess.RevokedAt != nil || !sess.ExpiresAt.After(now()) {
		return nil, nil
	}
	c := *sess
	return &c, nil
}

func (r sessionRepo) Revoke(_ context.Context, tokenID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[tokenID]
	if !ok || sess.RevokedAt != nil {
		return fmt.Errorf("session not found or already revoked")
	}
	t := now()
	sess.RevokedAt = &t
	return nil
}

func (r sessionRepo) RevokeAllUserSessions(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t := now()
	for _, sess := range r.s.sessions {
		if sess.UserID == userID && sess.RevokedAt == nil {
			revoked := t
			sess.RevokedAt = &revoked
		}
	}
	return nil
}

func (r sessionRepo) CleanExpiredSessions(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, sess := range r.s.sessions {
		if sess.ExpiresAt.Before(before) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

// ==== RIDES ====

type rideRepo struct{ s *Store }

func (r rideRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Ride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if ride, ok := r.s.rides[id]; ok {
		return ride.Clone(), nil
	}
	return nil, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func matchRide(ride *entity.Ride, f entity.RideFilter) bool {
	switch {
	case f.Origin != "" && !containsFold(ride.Origin, f.Origin):
		return false
	case f.Destination != "" && !containsFold(ride.Destination, f.Destination):
		return false
	case f.DriverID != nil && ride.DriverID != *f.DriverID:
		return false
	case f.DateFrom != nil && ride.DepartureTime.Before(*f.DateFrom):
		return false
	case f.DateTo != nil && ride.DepartureTime.After(*f.DateTo):
		return false
	case f.Status != nil && ride.Status != *f.Status:
		return false
	}
	return true
}

func (r rideRepo) filter(f entity.RideFilter) []*entity.Ride {
	var list []*entity.Ride
	for _, ride := range r.s.rides {
		if matchRide(ride, f) {
			list = append(list, ride.Clone())
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if f.SortDesc {
			return list[i].DepartureTime.After(list[j].DepartureTime)
		}
		return list[i].DepartureTime.Before(list[j].DepartureTime)
	})
	return list
}

func (r rideRepo) Search(_ context.Context, f entity.RideFilter, limit, offset int) ([]*entity.Ride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return paginate(r.filter(f), limit, offset), nil
}

func (r rideRepo) Count(_ context.Context, f entity.RideFilter) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.filter(f))), nil
}

func (r rideRepo) CountByDriver(_ context.Context, driverID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, ride := range r.s.rides {
		if ride.DriverID == driverID {
			n++
		}
	}
	return n, nil
}

func (r rideRepo) Participants(_ context.Context, rideID uuid.UUID) ([]*entity.Participant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var list []*entity.Reservation
	for _, res := range r.s.reservations {
		if res.RideID == rideID && res.Status != entity.ReservationStatusCancelled {
			list = append(list, res)
		}
	}
	sortReservations(list, false)

	participants := make([]*entity.Participant, 0, len(list))
	for _, res := range list {
		p := &entity.Participant{
			ReservationID:  res.ID,
			PassengerID:    res.PassengerID,
			SeatsRequested: res.SeatsRequested,
			Status:         res.Status,
		}
		if u, ok := r.s.users[res.PassengerID]; ok {
			p.Name = u.Name
			p.Email = u.Email
		}
		participants = append(participants, p)
	}
	return participants, nil
}

// ==== RESERVATIONS ====

type reservationRepo struct{ s *Store }

func sortReservations(list []*entity.Reservation, desc bool) {
	sort.SliceStable(list, func(i, j int) bool {
		if desc {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}

func (r reservationRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if res, ok := r.s.reservations[id]; ok {
		return res.Clone(), nil
	}
	return nil, nil
}

func (r reservationRepo) filter(f entity.ReservationFilter) []*entity.Reservation {
	var list []*entity.Reservation
	for _, res := range r.s.reservations {
		if f.UserID != nil {
			ride := r.s.rides[res.RideID]
			isDriver := ride != nil && ride.DriverID == *f.UserID
			if res.PassengerID != *f.UserID && !isDriver {
				continue
			}
		}
		if f.RideID != nil && res.RideID != *f.RideID {
			continue
		}
		if f.Status != nil && res.Status != *f.Status {
			continue
		}
		list = append(list, res.Clone())
	}
	sortReservations(list, true)
	return list
}

func (r reservationRepo) List(_ context.Context, f entity.ReservationFilter, limit, offset int) ([]*entity.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return paginate(r.filter(f), limit, offset), nil
}

func (r reservationRepo) Count(_ context.Context, f entity.ReservationFilter) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.filter(f))), nil
}

func (r reservationRepo) CountByPassenger(_ context.Context, passengerID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, res := range r.s.reservations {
		if res.PassengerID == passengerID {
			n++
		}
	}
	return n, nil
}

// ==== NOTIFICATIONS ====

type notificationRepo struct{ s *Store }

func cloneNotification(n *entity.Notification) *entity.Notification {
	c := *n
	return &c
}

func (r notificationRepo) Create(_ context.Context, n *entity.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.notifications[n.ID] = cloneNotification(n)
	return nil
}

func (r notificationRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if n, ok := r.s.notifications[id]; ok {
		return cloneNotification(n), nil
	}
	return nil, nil
}

func (r notificationRepo) filter(userID uuid.UUID, unreadOnly bool) []*entity.Notification {
	var list []*entity.Notification
	for _, n := range r.s.notifications {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		list = append(list, cloneNotification(n))
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

func (r notificationRepo) FindByUser(_ context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return paginate(r.filter(userID, unreadOnly), limit, offset), nil
}

func (r notificationRepo) CountByUser(_ context.Context, userID uuid.UUID, unreadOnly bool) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.filter(userID, unreadOnly))), nil
}

func (r notificationRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok {
		return fmt.Errorf("notification %s not found", id)
	}
	n.IsRead = true
	return nil
}

func (r notificationRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.notifications[id]; !ok {
		return fmt.Errorf("notification %s not found", id)
	}
	delete(r.s.notifications, id)
	return nil
}

// ==== STATS ====

type statsRepo struct{ s *Store }

func (r statsRepo) Collect(_ context.Context) (*entity.Stats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st := &entity.Stats{
		TotalUsers:        int64(len(r.s.users)),
		TotalRides:        int64(len(r.s.rides)),
		TotalReservations: int64(len(r.s.reservations)),
	}
	for _, ride := range r.s.rides {
		switch ride.Status {
		case entity.RideStatusOpen, entity.RideStatusFull:
			st.ActiveRides++
		case entity.RideStatusCompleted:
			st.CompletedRides++
		}
		if ride.Status != entity.RideStatusCancelled {
			st.TotalSeats += int64(ride.TotalSeats)
			st.CommittedSeats += int64(ride.CommittedSeats())
		}
	}
	for _, res := range r.s.reservations {
		if res.Status == entity.ReservationStatusCancelled {
			st.CancelledReservations++
		}
	}
	return st, nil
}
