// Package testutil provides in-memory repository fakes so service tests
// run without Postgres.
package testutil

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/smartsupport/helpdesk/internal/domain"
	"github.com/smartsupport/helpdesk/internal/repository"
)

// Store bundles one fake of each repository over a shared dataset, so
// referential checks (user deletes, catalog deletes) see the same
// tickets the ticket fake holds.
type Store struct {
	Users      *FakeUserRepo
	Statuses   *FakeStatusRepo
	Categories *FakeCategoryRepo
	Tickets    *FakeTicketRepo
	Comments   *FakeCommentRepo
}

// NewStore builds an empty wired store.
func NewStore() *Store {
	tickets := &FakeTicketRepo{byID: map[string]ticketRecord{}}
	statuses := &FakeStatusRepo{byID: map[string]domain.TicketStatus{}, tickets: tickets}
	tickets.statuses = statuses
	return &Store{
		Users:      &FakeUserRepo{byID: map[string]userRecord{}, tickets: tickets},
		Statuses:   statuses,
		Categories: &FakeCategoryRepo{byID: map[string]domain.Category{}, tickets: tickets},
		Tickets:    tickets,
		Comments:   &FakeCommentRepo{tickets: tickets},
	}
}

type userRecord struct {
	user domain.User
	seq  int64
}

// FakeUserRepo is a map-backed UserRepository.
type FakeUserRepo struct {
	mu      sync.RWMutex
	byID    map[string]userRecord
	seq     int64
	tickets *FakeTicketRepo
}

func (f *FakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	f.seq++
	f.byID[user.ID] = userRecord{user: *user, seq: f.seq}
	return nil
}

func (f *FakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.byID[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now().UTC()
	record.user = *user
	f.byID[user.ID] = record
	return nil
}

func (f *FakeUserRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	if f.tickets != nil && f.tickets.referencesUser(id) {
		return repository.ErrReferenced
	}
	delete(f.byID, id)
	return nil
}

func (f *FakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	record, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user := record.user
	return &user, nil
}

func (f *FakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, record := range f.byID {
		if strings.EqualFold(record.user.Email, email) {
			user := record.user
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *FakeUserRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	records := make([]userRecord, 0, len(f.byID))
	for _, record := range f.byID {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })

	users := make([]domain.User, 0, limit)
	for i := offset; i < len(records) && len(users) < limit; i++ {
		users = append(users, records[i].user)
	}
	return users, nil
}

func (f *FakeUserRepo) Count(_ context.Context) (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return int64(len(f.byID)), nil
}

// FakeStatusRepo is a map-backed StatusRepository.
type FakeStatusRepo struct {
	mu      sync.RWMutex
	byID    map[string]domain.TicketStatus
	tickets *FakeTicketRepo
}

func (f *FakeStatusRepo) Create(_ context.Context, status *domain.TicketStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if status.ID == "" {
		status.ID = uuid.NewString()
	}
	if status.SortOrder == 0 {
		max := 0
		for _, existing := range f.byID {
			if existing.SortOrder > max {
				max = existing.SortOrder
			}
		}
		status.SortOrder = max + 1
	}
	f.byID[status.ID] = *status
	return nil
}

func (f *FakeStatusRepo) Update(_ context.Context, status *domain.TicketStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[status.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.byID[status.ID] = *status
	return nil
}

func (f *FakeStatusRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	if f.tickets != nil && f.tickets.referencesStatus(id) {
		return repository.ErrReferenced
	}
	delete(f.byID, id)
	return nil
}

func (f *FakeStatusRepo) GetByID(_ context.Context, id string) (*domain.TicketStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	status, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &status, nil
}

func (f *FakeStatusRepo) GetByName(_ context.Context, name string) (*domain.TicketStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, status := range f.byID {
		if strings.EqualFold(status.Name, name) {
			match := status
			return &match, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *FakeStatusRepo) List(_ context.Context) ([]domain.TicketStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	statuses := make([]domain.TicketStatus, 0, len(f.byID))
	for _, status := range f.byID {
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].SortOrder < statuses[j].SortOrder })
	return statuses, nil
}

func (f *FakeStatusRepo) DefaultOpen(_ context.Context) (*domain.TicketStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var found *domain.TicketStatus
	for _, status := range f.byID {
		if status.IsTerminal {
			continue
		}
		candidate := status
		if found == nil || candidate.SortOrder < found.SortOrder {
			found = &candidate
		}
	}
	if found == nil {
		return nil, pgx.ErrNoRows
	}
	return found, nil
}

// FakeCategoryRepo is a map-backed CategoryRepository.
type FakeCategoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]domain.Category
	tickets *FakeTicketRepo
}

func (f *FakeCategoryRepo) Create(_ context.Context, category *domain.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	f.byID[category.ID] = *category
	return nil
}

func (f *FakeCategoryRepo) Update(_ context.Context, category *domain.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[category.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.byID[category.ID] = *category
	return nil
}

func (f *FakeCategoryRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	if f.tickets != nil && f.tickets.referencesCategory(id) {
		return repository.ErrReferenced
	}
	delete(f.byID, id)
	return nil
}

func (f *FakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	category, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &category, nil
}

func (f *FakeCategoryRepo) GetByName(_ context.Context, name string) (*domain.Category, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, category := range f.byID {
		if strings.EqualFold(category.Name, name) {
			match := category
			return &match, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *FakeCategoryRepo) List(_ context.Context) ([]domain.Category, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	categories := make([]domain.Category, 0, len(f.byID))
	for _, category := range f.byID {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

type ticketRecord struct {
	ticket domain.Ticket
	seq    int64
}

// FakeTicketRepo is a map-backed TicketRepository. Listing order matches
// the SQL implementation: newest first.
type FakeTicketRepo struct {
	mu       sync.RWMutex
	byID     map[string]ticketRecord
	seq      int64
	statuses *FakeStatusRepo
}

func (f *FakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	f.seq++
	ticket.Number = f.seq
	now := time.Now().UTC()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	f.byID[ticket.ID] = ticketRecord{ticket: *ticket, seq: f.seq}
	return nil
}

func (f *FakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.byID[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if !record.ticket.UpdatedAt.Equal(ticket.UpdatedAt) {
		return repository.ErrStaleUpdate
	}
	ticket.UpdatedAt = nextUpdatedAt(record.ticket.UpdatedAt)
	record.ticket = *ticket
	f.byID[ticket.ID] = record
	return nil
}

func (f *FakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	record, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket := record.ticket
	return &ticket, nil
}

// bump refreshes a ticket's updated_at, mirroring the transactional bump
// the SQL comment repository performs on insert.
func (f *FakeTicketRepo) bump(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	record.ticket.UpdatedAt = nextUpdatedAt(record.ticket.UpdatedAt)
	f.byID[id] = record
	return nil
}

// nextUpdatedAt guarantees a strictly later timestamp even when the clock
// has not advanced since the previous write.
func nextUpdatedAt(prev time.Time) time.Time {
	now := time.Now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

func (f *FakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	matched := f.filtered(filter)

	tickets := make([]domain.Ticket, 0, filter.Limit)
	for i := filter.Offset; i < len(matched); i++ {
		if filter.Limit > 0 && len(tickets) >= filter.Limit {
			break
		}
		tickets = append(tickets, matched[i].ticket)
	}
	return tickets, nil
}

func (f *FakeTicketRepo) CountWithFilter(_ context.Context, filter repository.TicketFilter) (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return int64(len(f.filtered(filter))), nil
}

func (f *FakeTicketRepo) StatusCounts(_ context.Context, createdBy *string) (map[string]int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	counts := map[string]int64{}
	names := map[string]string{}
	if f.statuses != nil {
		f.statuses.mu.RLock()
		for id, status := range f.statuses.byID {
			counts[status.Name] = 0
			names[id] = status.Name
		}
		f.statuses.mu.RUnlock()
	}
	for _, record := range f.byID {
		if createdBy != nil && record.ticket.CreatedBy != *createdBy {
			continue
		}
		counts[names[record.ticket.StatusID]]++
	}
	return counts, nil
}

func (f *FakeTicketRepo) PriorityCounts(_ context.Context, createdBy *string) (map[domain.TicketPriority]int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	counts := map[domain.TicketPriority]int64{}
	for _, priority := range domain.AllPriorities() {
		counts[priority] = 0
	}
	for _, record := range f.byID {
		if createdBy != nil && record.ticket.CreatedBy != *createdBy {
			continue
		}
		counts[record.ticket.Priority]++
	}
	return counts, nil
}

func (f *FakeTicketRepo) filtered(filter repository.TicketFilter) []ticketRecord {
	matched := make([]ticketRecord, 0, len(f.byID))
	for _, record := range f.byID {
		if !matches(record.ticket, filter) {
			continue
		}
		matched = append(matched, record)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq > matched[j].seq })
	return matched
}

func (f *FakeTicketRepo) referencesUser(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, record := range f.byID {
		if record.ticket.CreatedBy == id {
			return true
		}
		if record.ticket.AssignedTo != nil && *record.ticket.AssignedTo == id {
			return true
		}
	}
	return false
}

func (f *FakeTicketRepo) referencesStatus(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, record := range f.byID {
		if record.ticket.StatusID == id {
			return true
		}
	}
	return false
}

func (f *FakeTicketRepo) referencesCategory(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, record := range f.byID {
		if record.ticket.CategoryID != nil && *record.ticket.CategoryID == id {
			return true
		}
	}
	return false
}

func matches(ticket domain.Ticket, filter repository.TicketFilter) bool {
	if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
		return false
	}
	if filter.StatusID != nil && ticket.StatusID != *filter.StatusID {
		return false
	}
	if filter.Priority != nil && ticket.Priority != *filter.Priority {
		return false
	}
	if filter.CategoryID != nil {
		if ticket.CategoryID == nil || *ticket.CategoryID != *filter.CategoryID {
			return false
		}
	}
	if filter.Search != nil {
		needle := strings.ToLower(*filter.Search)
		subject := strings.ToLower(ticket.Subject)
		number := strconv.FormatInt(ticket.Number, 10)
		if !strings.Contains(subject, needle) && !strings.Contains(number, needle) {
			return false
		}
	}
	return true
}

type commentRecord struct {
	comment domain.Comment
	seq     int64
}

// FakeCommentRepo is an append-only CommentRepository. Like the SQL
// implementation, a created comment bumps the parent ticket's updated_at.
type FakeCommentRepo struct {
	mu       sync.RWMutex
	comments []commentRecord
	seq      int64
	tickets  *FakeTicketRepo
}

func (f *FakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	if f.tickets != nil {
		if err := f.tickets.bump(comment.TicketID); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	comment.CreatedAt = time.Now().UTC()
	f.seq++
	f.comments = append(f.comments, commentRecord{comment: *comment, seq: f.seq})
	return nil
}

func (f *FakeCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	matched := make([]commentRecord, 0)
	for _, record := range f.comments {
		if record.comment.TicketID == ticketID {
			matched = append(matched, record)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })
	comments := make([]domain.Comment, 0, len(matched))
	for _, record := range matched {
		comments = append(comments, record.comment)
	}
	return comments, nil
}
