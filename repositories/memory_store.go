package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tournament-finder/geo"
	"github.com/Dosada05/tournament-finder/models"
)

type memoryState struct {
	tournaments  map[string]models.Tournament
	images       map[string][]models.Image
	participants map[string]map[string]models.Participation
	users        map[string]models.User
	geo          *geo.MemoryIndex
}

func newMemoryState() *memoryState {
	return &memoryState{
		tournaments:  make(map[string]models.Tournament),
		images:       make(map[string][]models.Image),
		participants: make(map[string]map[string]models.Participation),
		users:        make(map[string]models.User),
		geo:          geo.NewMemoryIndex(),
	}
}

func (st *memoryState) clone() *memoryState {
	c := &memoryState{
		tournaments:  make(map[string]models.Tournament, len(st.tournaments)),
		images:       make(map[string][]models.Image, len(st.images)),
		participants: make(map[string]map[string]models.Participation, len(st.participants)),
		users:        make(map[string]models.User, len(st.users)),
		geo:          st.geo.Clone(),
	}
	for id, t := range st.tournaments {
		c.tournaments[id] = t
	}
	for id, imgs := range st.images {
		c.images[id] = append([]models.Image(nil), imgs...)
	}
	for id, byUser := range st.participants {
		m := make(map[string]models.Participation, len(byUser))
		for uid, p := range byUser {
			m[uid] = p
		}
		c.participants[id] = m
	}
	for id, u := range st.users {
		c.users[id] = u
	}
	return c
}

type memoryRoot struct {
	mu    sync.RWMutex
	state *memoryState
}

// memoryStore is a process-local Store. A transaction runs on a private copy
// of the state under the write lock and replaces the shared state on success,
// so a failed transaction leaves nothing behind.
type memoryStore struct {
	root *memoryRoot
	tx   *memoryState
}

func NewMemoryStore() Store {
	return &memoryStore{root: &memoryRoot{state: newMemoryState()}}
}

func (s *memoryStore) read(fn func(st *memoryState) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.root.mu.RLock()
	defer s.root.mu.RUnlock()
	return fn(s.root.state)
}

func (s *memoryStore) write(fn func(st *memoryState) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	return fn(s.root.state)
}

func (s *memoryStore) Tournaments() TournamentRepository   { return &memoryTournamentRepository{s} }
func (s *memoryStore) Images() ImageRepository             { return &memoryImageRepository{s} }
func (s *memoryStore) Participants() ParticipantRepository { return &memoryParticipantRepository{s} }
func (s *memoryStore) Users() UserRepository               { return &memoryUserRepository{s} }
func (s *memoryStore) Geo() geo.Index                      { return &memoryGeoIndex{s} }

func (s *memoryStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	txStore := &memoryStore{root: s.root, tx: s.root.state.clone()}
	if err := fn(ctx, txStore); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.root.state = txStore.tx
	return nil
}

type memoryTournamentRepository struct{ s *memoryStore }

func (r *memoryTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	return r.s.write(func(st *memoryState) error {
		row := *t
		row.Images, row.Participants = nil, nil
		st.tournaments[t.ID] = row
		return nil
	})
}

func (r *memoryTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	var out *models.Tournament
	err := r.s.read(func(st *memoryState) error {
		t, ok := st.tournaments[id]
		if !ok {
			return ErrTournamentNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *memoryTournamentRepository) GetForUpdate(ctx context.Context, id string) (*models.Tournament, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryTournamentRepository) Search(ctx context.Context, q SearchQuery) ([]models.Tournament, int, error) {
	matched := make([]models.Tournament, 0)
	err := r.s.read(func(st *memoryState) error {
		for _, t := range st.tournaments {
			if q.Matches(&t) {
				matched = append(matched, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	q.sortTournaments(matched)
	total := len(matched)
	start := min(max(q.Offset, 0), total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	return matched[start:end], total, nil
}

func (r *memoryTournamentRepository) ListByCreator(ctx context.Context, userID string) ([]models.Tournament, error) {
	out := make([]models.Tournament, 0)
	err := r.s.read(func(st *memoryState) error {
		for _, t := range st.tournaments {
			if t.CreatedBy == userID {
				out = append(out, t)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *memoryTournamentRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Tournament, error) {
	out := make([]models.Tournament, 0, len(ids))
	err := r.s.read(func(st *memoryState) error {
		for _, id := range ids {
			if t, ok := st.tournaments[id]; ok {
				out = append(out, t)
			}
		}
		return nil
	})
	return out, err
}

func (r *memoryTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	return r.s.write(func(st *memoryState) error {
		cur, ok := st.tournaments[t.ID]
		if !ok {
			return ErrTournamentNotFound
		}
		row := *t
		row.Images, row.Participants = nil, nil
		row.CreatedBy, row.CreatedAt = cur.CreatedBy, cur.CreatedAt
		row.IsActive, row.IsApproved = cur.IsActive, cur.IsApproved
		st.tournaments[t.ID] = row
		return nil
	})
}

func (r *memoryTournamentRepository) UpdateActive(ctx context.Context, id string, isActive bool, updatedAt time.Time) error {
	return r.s.write(func(st *memoryState) error {
		t, ok := st.tournaments[id]
		if !ok {
			return ErrTournamentNotFound
		}
		t.IsActive, t.UpdatedAt = isActive, updatedAt
		st.tournaments[id] = t
		return nil
	})
}

func (r *memoryTournamentRepository) Delete(ctx context.Context, id string) error {
	return r.s.write(func(st *memoryState) error {
		if _, ok := st.tournaments[id]; !ok {
			return ErrTournamentNotFound
		}
		delete(st.tournaments, id)
		delete(st.images, id)
		delete(st.participants, id)
		return st.geo.Remove(ctx, id)
	})
}

type memoryImageRepository struct{ s *memoryStore }

func (r *memoryImageRepository) InsertMany(ctx context.Context, tournamentID string, images []models.Image) error {
	return r.s.write(func(st *memoryState) error {
		if _, ok := st.tournaments[tournamentID]; !ok {
			return ErrTournamentNotFound
		}
		existing := st.images[tournamentID]
		for _, img := range images {
			dup := false
			for _, e := range existing {
				if e.PublicID == img.PublicID {
					dup = true
					break
				}
			}
			if dup {
				continue
			}
			img.TournamentID = tournamentID
			existing = append(existing, img)
		}
		st.images[tournamentID] = existing
		return nil
	})
}

func (r *memoryImageRepository) DeleteByTournament(ctx context.Context, tournamentID string) error {
	return r.s.write(func(st *memoryState) error {
		delete(st.images, tournamentID)
		return nil
	})
}

func (r *memoryImageRepository) ListByTournaments(ctx context.Context, tournamentIDs []string) (map[string][]models.Image, error) {
	out := make(map[string][]models.Image, len(tournamentIDs))
	err := r.s.read(func(st *memoryState) error {
		for _, id := range tournamentIDs {
			if imgs := st.images[id]; len(imgs) > 0 {
				out[id] = append([]models.Image(nil), imgs...)
			}
		}
		return nil
	})
	return out, err
}

type memoryParticipantRepository struct{ s *memoryStore }

func (r *memoryParticipantRepository) Insert(ctx context.Context, p *models.Participation, maxParticipants int) error {
	return r.s.write(func(st *memoryState) error {
		if _, ok := st.tournaments[p.TournamentID]; !ok {
			return ErrTournamentNotFound
		}
		byUser := st.participants[p.TournamentID]
		if _, ok := byUser[p.UserID]; ok {
			return ErrParticipantConflict
		}
		if len(byUser) >= maxParticipants {
			return ErrCapacityReached
		}
		if byUser == nil {
			byUser = make(map[string]models.Participation)
			st.participants[p.TournamentID] = byUser
		}
		byUser[p.UserID] = *p
		return nil
	})
}

func (r *memoryParticipantRepository) Delete(ctx context.Context, tournamentID, userID string) error {
	return r.s.write(func(st *memoryState) error {
		byUser := st.participants[tournamentID]
		if _, ok := byUser[userID]; !ok {
			return ErrParticipantNotFound
		}
		delete(byUser, userID)
		return nil
	})
}

func (r *memoryParticipantRepository) DeleteByTournament(ctx context.Context, tournamentID string) error {
	return r.s.write(func(st *memoryState) error {
		delete(st.participants, tournamentID)
		return nil
	})
}

func (r *memoryParticipantRepository) Count(ctx context.Context, tournamentID string) (int, error) {
	n := 0
	err := r.s.read(func(st *memoryState) error {
		n = len(st.participants[tournamentID])
		return nil
	})
	return n, err
}

func (r *memoryParticipantRepository) ListByTournaments(ctx context.Context, tournamentIDs []string) (map[string][]models.Participation, error) {
	out := make(map[string][]models.Participation, len(tournamentIDs))
	err := r.s.read(func(st *memoryState) error {
		for _, id := range tournamentIDs {
			byUser := st.participants[id]
			if len(byUser) == 0 {
				continue
			}
			list := make([]models.Participation, 0, len(byUser))
			for _, p := range byUser {
				list = append(list, p)
			}
			sort.Slice(list, func(i, j int) bool {
				if !list[i].JoinedAt.Equal(list[j].JoinedAt) {
					return list[i].JoinedAt.Before(list[j].JoinedAt)
				}
				return list[i].UserID < list[j].UserID
			})
			out[id] = list
		}
		return nil
	})
	return out, err
}

func (r *memoryParticipantRepository) ListByUser(ctx context.Context, userID string) ([]models.Participation, error) {
	out := make([]models.Participation, 0)
	err := r.s.read(func(st *memoryState) error {
		for _, byUser := range st.participants {
			if p, ok := byUser[userID]; ok {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.After(out[j].JoinedAt) })
	return out, err
}

type memoryUserRepository struct{ s *memoryStore }

func (r *memoryUserRepository) Upsert(ctx context.Context, u *models.User) error {
	return r.s.write(func(st *memoryState) error {
		if cur, ok := st.users[u.ID]; ok {
			u.CreatedAt = cur.CreatedAt
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *memoryUserRepository) Delete(ctx context.Context, id string) error {
	return r.s.write(func(st *memoryState) error {
		if _, ok := st.users[id]; !ok {
			return ErrUserNotFound
		}
		delete(st.users, id)
		return nil
	})
}

func (r *memoryUserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	err := r.s.read(func(st *memoryState) error {
		for _, id := range ids {
			if u, ok := st.users[id]; ok {
				out[id] = u
			}
		}
		return nil
	})
	return out, err
}

type memoryGeoIndex struct{ s *memoryStore }

func (g *memoryGeoIndex) FindWithinRadius(ctx context.Context, center geo.Point, radiusKm float64) (geo.IDSet, error) {
	var found geo.IDSet
	err := g.s.read(func(st *memoryState) error {
		var err error
		found, err = st.geo.FindWithinRadius(ctx, center, radiusKm)
		return err
	})
	return found, err
}

func (g *memoryGeoIndex) Upsert(ctx context.Context, tournamentID string, p geo.Point) error {
	return g.s.write(func(st *memoryState) error {
		return st.geo.Upsert(ctx, tournamentID, p)
	})
}

func (g *memoryGeoIndex) Remove(ctx context.Context, tournamentID string) error {
	return g.s.write(func(st *memoryState) error {
		return st.geo.Remove(ctx, tournamentID)
	})
}
