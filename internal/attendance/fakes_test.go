package attendance

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/evn/absen_backend/internal/models"
	"github.com/evn/absen_backend/internal/repositories"
	"github.com/evn/absen_backend/internal/tasks"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeDirectory struct {
	mu         sync.Mutex
	owners     map[string]int64
	users      map[int64]*models.User
	ownerCalls int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{owners: map[string]int64{}, users: map[int64]*models.User{}}
}

func (d *fakeDirectory) ActiveCardOwner(_ context.Context, cardUID string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ownerCalls++
	id, ok := d.owners[cardUID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	return id, nil
}

func (d *fakeDirectory) GetByID(_ context.Context, id int64) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeShiftMaps struct {
	maps []models.UserShiftMap
	err  error
}

func (f *fakeShiftMaps) EffectiveMaps(_ context.Context, userID int64, _ time.Time) ([]models.UserShiftMap, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.UserShiftMap
	for _, m := range f.maps {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeRecords struct {
	mu        sync.Mutex
	recs      []*models.AttendanceRecord
	createErr error
}

func (f *fakeRecords) Create(_ context.Context, rec *models.AttendanceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	rec.ID = int64(len(f.recs) + 1)
	rec.CreatedAt = rec.TapTime
	cp := *rec
	f.recs = append(f.recs, &cp)
	return nil
}

func (f *fakeRecords) GetByID(_ context.Context, id int64) (*models.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.recs {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeRecords) LatestForUserBetween(_ context.Context, userID int64, from, to time.Time) (*models.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.AttendanceRecord
	for _, r := range f.recs {
		if r.UserID != userID || r.TapTime.Before(from) || !r.TapTime.Before(to) {
			continue
		}
		if latest == nil || !r.TapTime.Before(latest.TapTime) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeRecords) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.recs)
}

type fakePhotos struct {
	mu     sync.Mutex
	photos []*models.AttendancePhoto
}

// Create keeps one row per record like the photo repository's upsert.
func (f *fakePhotos) Create(_ context.Context, p *models.AttendancePhoto) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.photos {
		if existing.AttendanceID != p.AttendanceID {
			continue
		}
		if p.IsPlaceholder() && !existing.IsPlaceholder() {
			return nil
		}
		p.ID = existing.ID
		f.photos[i] = p
		return nil
	}
	p.ID = int64(len(f.photos) + 1)
	f.photos = append(f.photos, p)
	return nil
}

// LatestForAttendance lets the fake double as the notifier's photo source.
func (f *fakePhotos) LatestForAttendance(_ context.Context, attendanceID int64) (*models.AttendancePhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.photos) - 1; i >= 0; i-- {
		if f.photos[i].AttendanceID == attendanceID {
			return f.photos[i], nil
		}
	}
	return nil, nil
}

type memObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemObjectStore() *memObjectStore {
	return &memObjectStore{objects: map[string][]byte{}}
}

func (s *memObjectStore) Put(_ context.Context, key string, data []byte, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memObjectStore) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.test/" + key + "?sig=x", nil
}

// inlineScheduler runs tasks on Submit so tests can assert on their effects.
type inlineScheduler struct {
	mu    sync.Mutex
	names []string
	errs  []error
}

func (s *inlineScheduler) Submit(task tasks.Task) error {
	err := task.Run(context.Background())
	s.mu.Lock()
	s.names = append(s.names, task.Name)
	s.errs = append(s.errs, err)
	s.mu.Unlock()
	return nil
}

type published struct {
	event    string
	channels []string
	payload  any
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (b *fakeBroadcaster) Publish(event string, channels []string, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, published{event, channels, payload})
	return b.err
}

type fakeNotifier struct {
	mu   sync.Mutex
	recs []*models.AttendanceRecord
	err  error
}

func (n *fakeNotifier) Dispatch(_ context.Context, rec *models.AttendanceRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.recs = append(n.recs, rec)
	return n.err
}

var errBoom = errors.New("boom")
