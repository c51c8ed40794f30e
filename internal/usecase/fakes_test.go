package usecase

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"gigmarket/internal/domain/entity"
	"gigmarket/internal/domain/repository"
	"gigmarket/pkg/errors"
)

// In-memory repositories used across the use case tests. They copy on read
// and write so tests observe only what was persisted.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		r.put(u)
	}
	return r
}

func (r *fakeUserRepo) put(u *entity.User) {
	c := *u
	r.users[u.ID] = &c
}

func (r *fakeUserRepo) get(id string) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	c := *u
	return &c
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return errors.Conflict("Email is already registered")
		}
	}
	r.put(user)
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if u := r.get(id); u != nil {
		return u, nil
	}
	return nil, errors.NotFound("User", nil)
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

// set replaces a stored user outright. Tests use it to arrange state.
func (r *fakeUserRepo) set(u *entity.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(u)
}

func (r *fakeUserRepo) Mutate(ctx context.Context, id string, fn repository.UserFunc) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	u := *stored
	if err := fn(&u); err != nil {
		return nil, err
	}
	r.put(&u)
	return &u, nil
}

func (r *fakeUserRepo) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return errors.NotFound("User", nil)
	}
	u.LastLoginAt = &at
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return errors.NotFound("User", nil)
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context, filter repository.UserFilter, limit, offset int) ([]*entity.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.User
	for _, u := range r.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		switch filter.State {
		case "active":
			if !u.IsActive || u.IsSuspended {
				continue
			}
		case "suspended":
			if !u.IsSuspended {
				continue
			}
		case "inactive":
			if u.IsActive {
				continue
			}
		}
		c := *u
		out = append(out, &c)
	}
	return out, int64(len(out)), nil
}

func (r *fakeUserRepo) CountByField(ctx context.Context, field string, value interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if field == "role" && u.Role == value {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.User
	for _, u := range r.users {
		if !u.CreatedAt.Before(from) && u.CreatedAt.Before(to) {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateRating(ctx context.Context, userID string, summary entity.RatingSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return errors.NotFound("User", nil)
	}
	u.Stats.Rating = summary.Average
	u.Stats.TotalReviews = summary.Count
	return nil
}

type fakeGigRepo struct {
	mu   sync.Mutex
	gigs map[string]*entity.Gig
}

func newFakeGigRepo(gigs ...*entity.Gig) *fakeGigRepo {
	r := &fakeGigRepo{gigs: make(map[string]*entity.Gig)}
	for _, g := range gigs {
		r.gigs[g.ID] = cloneGig(g)
	}
	return r
}

func cloneGig(g *entity.Gig) *entity.Gig {
	c := *g
	c.Images = append([]entity.GigImage(nil), g.Images...)
	return &c
}

func (r *fakeGigRepo) get(id string) *entity.Gig {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gigs[id]
	if !ok {
		return nil
	}
	return cloneGig(g)
}

func (r *fakeGigRepo) Create(ctx context.Context, gig *entity.Gig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gigs[gig.ID] = cloneGig(gig)
	return nil
}

func (r *fakeGigRepo) GetByID(ctx context.Context, id string) (*entity.Gig, error) {
	if g := r.get(id); g != nil {
		return g, nil
	}
	return nil, errors.NotFound("Gig", nil)
}

func (r *fakeGigRepo) set(g *entity.Gig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gigs[g.ID] = cloneGig(g)
}

func (r *fakeGigRepo) Mutate(ctx context.Context, id string, fn repository.GigFunc) (*entity.Gig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.gigs[id]
	if !ok {
		return nil, errors.NotFound("Gig", nil)
	}
	g := cloneGig(stored)
	if err := fn(g); err != nil {
		return nil, err
	}
	r.gigs[id] = cloneGig(g)
	return g, nil
}

func (r *fakeGigRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.gigs, id)
	return nil
}

func (r *fakeGigRepo) List(ctx context.Context, filter repository.GigFilter, limit, offset int) ([]*entity.Gig, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Gig
	for _, g := range r.gigs {
		if filter.Status != "" && g.Status != filter.Status {
			continue
		}
		if filter.SellerID != "" && g.SellerID != filter.SellerID {
			continue
		}
		out = append(out, cloneGig(g))
	}
	return out, int64(len(out)), nil
}

func (r *fakeGigRepo) CountByField(ctx context.Context, field string, value interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, g := range r.gigs {
		if field == "status" && g.Status == value {
			n++
		}
	}
	return n, nil
}

func (r *fakeGigRepo) CountByCategory(ctx context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64)
	for _, g := range r.gigs {
		out[g.Category]++
	}
	return out, nil
}

func (r *fakeGigRepo) UpdateRating(ctx context.Context, gigID string, summary entity.RatingSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gigs[gigID]
	if !ok {
		return errors.NotFound("Gig", nil)
	}
	g.Rating = summary.Average
	g.TotalReviews = summary.Count
	return nil
}

func (r *fakeGigRepo) HasLiveGigs(ctx context.Context, sellerID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.gigs {
		if g.SellerID != sellerID {
			continue
		}
		if g.Status != entity.GigStatusDraft && g.Status != entity.GigStatusRejected {
			return true, nil
		}
	}
	return false, nil
}

// fakeOrderRepo shares the user, gig and conversation fakes so multi-document
// writes land together or not at all. failCreate makes Create fail before writing.
type fakeOrderRepo struct {
	mu         sync.Mutex
	orders     map[string]*entity.Order
	users      *fakeUserRepo
	gigs       *fakeGigRepo
	convs      *fakeConversationRepo
	failCreate error
}

func newFakeOrderRepo(users *fakeUserRepo, gigs *fakeGigRepo, orders ...*entity.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{
		orders: make(map[string]*entity.Order),
		users:  users,
		gigs:   gigs,
		convs:  newFakeConversationRepo(),
	}
	for _, o := range orders {
		r.orders[o.ID] = cloneOrder(o)
	}
	return r
}

func cloneOrder(o *entity.Order) *entity.Order {
	c := *o
	c.Revisions = append([]entity.Revision(nil), o.Revisions...)
	if o.Delivery != nil {
		d := *o.Delivery
		c.Delivery = &d
	}
	return &c
}

func (r *fakeOrderRepo) get(id string) *entity.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil
	}
	return cloneOrder(o)
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *entity.Order, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	if err := r.convs.Create(ctx, conversation); err != nil {
		return err
	}
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	if o := r.get(id); o != nil {
		return o, nil
	}
	return nil, errors.NotFound("Order", nil)
}

func (r *fakeOrderRepo) Update(ctx context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *fakeOrderRepo) List(ctx context.Context, filter repository.OrderFilter, limit, offset int) ([]*entity.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Order
	for _, o := range r.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.PaymentStatus != "" && o.PaymentStatus != filter.PaymentStatus {
			continue
		}
		if filter.BuyerID != "" && o.BuyerID != filter.BuyerID {
			continue
		}
		if filter.SellerID != "" && o.SellerID != filter.SellerID {
			continue
		}
		if filter.ParticipantID != "" && !o.IsParty(filter.ParticipantID) {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) CountByField(ctx context.Context, field string, value interface{}) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.orders {
		if field == "status" && o.Status == value {
			n++
		}
	}
	return n, nil
}

func (r *fakeOrderRepo) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Order
	for _, o := range r.orders {
		if !o.CreatedAt.Before(from) && o.CreatedAt.Before(to) {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListCompletedBetween(ctx context.Context, from, to time.Time) ([]*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Order
	for _, o := range r.orders {
		if o.Status != entity.OrderStatusCompleted || o.CompletedAt == nil {
			continue
		}
		if !o.CompletedAt.Before(from) && o.CompletedAt.Before(to) {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) ListDeliveredBefore(ctx context.Context, before time.Time, limit int) ([]*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Order
	for _, o := range r.orders {
		if o.Status == entity.OrderStatusDelivered && o.Delivery != nil && o.Delivery.DeliveredAt.Before(before) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeOrderRepo) HasOpenOrders(ctx context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.IsParty(userID) && !o.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOrderRepo) HasOpenOrdersForGig(ctx context.Context, gigID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.GigID == gigID && !o.IsTerminal() {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOrderRepo) Mutate(ctx context.Context, orderID string, fn repository.OrderFunc) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[orderID]
	if !ok {
		return nil, errors.NotFound("Order", nil)
	}
	order := cloneOrder(stored)
	if err := fn(order); err != nil {
		return nil, err
	}
	r.orders[orderID] = cloneOrder(order)
	return order, nil
}

func (r *fakeOrderRepo) UpdateWithParties(ctx context.Context, orderID string, fn repository.PartiesFunc) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.orders[orderID]
	if !ok {
		return nil, errors.NotFound("Order", nil)
	}
	parties := &entity.OrderParties{Order: cloneOrder(stored), Gig: r.gigs.get(stored.GigID)}
	if parties.Buyer = r.users.get(stored.BuyerID); parties.Buyer == nil {
		return nil, errors.NotFound("Buyer", nil)
	}
	if parties.Seller = r.users.get(stored.SellerID); parties.Seller == nil {
		return nil, errors.NotFound("Seller", nil)
	}
	if err := fn(parties); err != nil {
		return nil, err
	}
	r.orders[orderID] = cloneOrder(parties.Order)
	r.users.set(parties.Buyer)
	r.users.set(parties.Seller)
	if parties.Gig != nil {
		r.gigs.set(parties.Gig)
	}
	return parties.Order, nil
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews map[string]*entity.Review
}

func newFakeReviewRepo(reviews ...*entity.Review) *fakeReviewRepo {
	r := &fakeReviewRepo{reviews: make(map[string]*entity.Review)}
	for _, rv := range reviews {
		c := *rv
		r.reviews[rv.ID] = &c
	}
	return r
}

func (r *fakeReviewRepo) matches(rv *entity.Review, f repository.ReviewFilter) bool {
	switch {
	case f.GigID != "" && rv.GigID != f.GigID:
		return false
	case f.RevieweeID != "" && rv.RevieweeID != f.RevieweeID:
		return false
	case f.ReviewerID != "" && rv.ReviewerID != f.ReviewerID:
		return false
	case f.Status != "" && rv.Status != f.Status:
		return false
	case f.Reported != nil && rv.Reported != *f.Reported:
		return false
	}
	return true
}

func (r *fakeReviewRepo) CreateUnique(ctx context.Context, review *entity.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.OrderID == review.OrderID {
			return errors.Conflict("Order has already been reviewed")
		}
	}
	c := *review
	r.reviews[review.ID] = &c
	return nil
}

func (r *fakeReviewRepo) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.reviews[id]
	if !ok {
		return nil, errors.NotFound("Review", nil)
	}
	c := *rv
	return &c, nil
}

func (r *fakeReviewRepo) GetByOrderID(ctx context.Context, orderID string) (*entity.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.OrderID == orderID {
			c := *rv
			return &c, nil
		}
	}
	return nil, errors.NotFound("Review", nil)
}

// Update leaves the report fields as stored, like the Firestore field update.
func (r *fakeReviewRepo) Update(ctx context.Context, review *entity.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.reviews[review.ID]
	if !ok {
		return errors.NotFound("Review", nil)
	}
	c := *review
	c.Reported = stored.Reported
	c.ReportReason = stored.ReportReason
	c.ReportedBy = stored.ReportedBy
	c.ReportedAt = stored.ReportedAt
	r.reviews[review.ID] = &c
	return nil
}

func (r *fakeReviewRepo) MarkReported(ctx context.Context, id, reporterID, reason string, at time.Time) (*entity.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.reviews[id]
	if !ok {
		return nil, errors.NotFound("Review", nil)
	}
	if stored.ReviewerID == reporterID {
		return nil, errors.Forbidden("You cannot report your own review", nil)
	}
	stored.Reported = true
	stored.ReportReason = reason
	stored.ReportedBy = reporterID
	stored.ReportedAt = &at
	c := *stored
	return &c, nil
}

// set replaces a stored review outright.
func (r *fakeReviewRepo) set(review *entity.Review) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *review
	r.reviews[review.ID] = &c
}

func (r *fakeReviewRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reviews, id)
	return nil
}

func (r *fakeReviewRepo) List(ctx context.Context, filter repository.ReviewFilter, limit, offset int) ([]*entity.Review, int64, error) {
	all, _ := r.ListAll(ctx, filter)
	return all, int64(len(all)), nil
}

func (r *fakeReviewRepo) ListAll(ctx context.Context, filter repository.ReviewFilter) ([]*entity.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Review
	for _, rv := range r.reviews {
		if r.matches(rv, filter) {
			c := *rv
			out = append(out, &c)
		}
	}
	return out, nil
}

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message
}

func newFakeConversationRepo(conversations ...*entity.Conversation) *fakeConversationRepo {
	r := &fakeConversationRepo{
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string][]*entity.Message),
	}
	for _, c := range conversations {
		r.conversations[c.ID] = cloneConversation(c)
	}
	return r
}

func cloneConversation(c *entity.Conversation) *entity.Conversation {
	out := *c
	out.Participants = append([]string(nil), c.Participants...)
	out.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		out.UnreadCount[k] = v
	}
	out.ReadSeq = make(map[string]int, len(c.ReadSeq))
	for k, v := range c.ReadSeq {
		out.ReadSeq[k] = v
	}
	return &out
}

func (r *fakeConversationRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := cloneConversation(conversation)
	c.ParticipantsKey = entity.ParticipantsKey(c.Participants)
	r.conversations[c.ID] = c
	return nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return cloneConversation(c), nil
}

func (r *fakeConversationRepo) FindDirect(ctx context.Context, participantsKey string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conversations {
		if c.OrderID == "" && entity.ParticipantsKey(c.Participants) == participantsKey {
			return cloneConversation(c), nil
		}
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *fakeConversationRepo) ListByParticipant(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Conversation
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			out = append(out, cloneConversation(c))
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeConversationRepo) ListMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := r.messages[conversationID]
	return msgs, int64(len(msgs)), nil
}

func (r *fakeConversationRepo) AppendMessage(ctx context.Context, conversationID string, msg *entity.Message) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	c.RecordMessage(msg)
	stored := *msg
	r.messages[conversationID] = append(r.messages[conversationID], &stored)
	return cloneConversation(c), nil
}

func (r *fakeConversationRepo) MarkRead(ctx context.Context, conversationID, userID string, at time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	marked := make([]string, 0)
	for _, m := range r.messages[conversationID] {
		if m.Seq <= c.ReadThrough(userID) {
			continue
		}
		if m.MarkReadBy(userID, at) {
			marked = append(marked, m.ID)
		}
	}
	c.MarkRead(userID)
	return marked, nil
}

type fakeFileMetadataRepo struct {
	mu    sync.Mutex
	files map[string]*entity.FileMetadata
}

func newFakeFileMetadataRepo() *fakeFileMetadataRepo {
	return &fakeFileMetadataRepo{files: make(map[string]*entity.FileMetadata)}
}

func (r *fakeFileMetadataRepo) Create(ctx context.Context, metadata *entity.FileMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *metadata
	r.files[metadata.ID] = &c
	return nil
}

func (r *fakeFileMetadataRepo) GetByID(ctx context.Context, id string) (*entity.FileMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.files[id]
	if !ok {
		return nil, errors.NotFound("File", nil)
	}
	c := *m
	return &c, nil
}

func (r *fakeFileMetadataRepo) GetByURL(ctx context.Context, url string) (*entity.FileMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.files {
		if m.URL == url {
			c := *m
			return &c, nil
		}
	}
	return nil, errors.NotFound("File", nil)
}

func (r *fakeFileMetadataRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, id)
	return nil
}

func (r *fakeFileMetadataRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.files)
}

// fakeStorage keeps objects in memory. failOn makes Upload fail for names
// containing it; onUpload runs before each object is stored.
type fakeStorage struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failOn   string
	onUpload func()
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Upload(ctx context.Context, r io.Reader, objectName, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	if s.onUpload != nil {
		s.onUpload()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && strings.Contains(objectName, s.failOn) {
		return "", io.ErrClosedPipe
	}
	s.objects[objectName] = buf.Bytes()
	return "/uploads/" + objectName, nil
}

func (s *fakeStorage) Delete(ctx context.Context, objectName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectName)
	return nil
}

func (s *fakeStorage) Backend() string {
	return entity.StorageBackendLocal
}

func (s *fakeStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// plainHasher stores passwords reversibly so tests stay fast.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) bool { return hash == "hashed:"+password }

// hookedHasher runs onCompare in the middle of every comparison and counts them.
type hookedHasher struct {
	plainHasher
	onCompare func()
	compares  int
}

func (h *hookedHasher) Compare(hash, password string) bool {
	h.compares++
	if h.onCompare != nil {
		h.onCompare()
	}
	return h.plainHasher.Compare(hash, password)
}

type staticTokens struct{}

func (staticTokens) Issue(userID, role string) (string, error) { return "token-" + userID, nil }

type emitted struct {
	UserIDs []string
	Event   string
	Data    interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []emitted
}

func (n *recordingNotifier) EmitToUsers(ctx context.Context, userIDs []string, event string, data interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, emitted{UserIDs: userIDs, Event: event, Data: data})
	return nil
}

func (n *recordingNotifier) EmitToRoom(ctx context.Context, room, exceptUserID, event string, data interface{}) error {
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
