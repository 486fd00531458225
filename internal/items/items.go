// Package items defines the Item resource and the gateway the web service
// uses to read and change it.
package items

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Item is one record owned by a signed-in user.
type Item struct {
	ID          string
	Title       string
	Description string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Principal is the caller on whose behalf the gateway acts.
type Principal struct {
	UserID string
	// AccessToken authorizes calls to remote backends.
	AccessToken string
}

// Input carries the editable fields of an Item.
type Input struct {
	Title       string
	Description string
}

// Normalize trims the fields and checks the required title.
func (in Input) Normalize() (Input, error) {
	out := Input{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
	}
	if out.Title == "" {
		return Input{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	return out, nil
}

// Gateway reads and writes items as the given principal.
type Gateway interface {
	List(ctx context.Context, principal Principal) ([]Item, error)
	Get(ctx context.Context, principal Principal, itemID string) (Item, error)
	Create(ctx context.Context, principal Principal, input Input) (Item, error)
	Update(ctx context.Context, principal Principal, itemID string, input Input) (Item, error)
	Delete(ctx context.Context, principal Principal, itemID string) error
}

// Gateway failures.
var (
	ErrInvalidInput = errors.New("invalid item input")
	ErrNotFound     = errors.New("item not found")
	ErrUnauthorized = errors.New("item access requires a signed-in user")
	ErrForbidden    = errors.New("item access denied")
)

// Policy decides which principals may read and change an item.
type Policy string

const (
	// PolicyOwnerWriteAuthenticatedRead lets any signed-in user read every
	// item and only the owner change it.
	PolicyOwnerWriteAuthenticatedRead Policy = "owner-write"
	// PolicyOwnerOnly restricts every operation to the owner.
	PolicyOwnerOnly Policy = "owner-only"
)

// ParsePolicy resolves a configured policy name; empty selects the default.
func ParsePolicy(raw string) (Policy, error) {
	switch Policy(strings.TrimSpace(strings.ToLower(raw))) {
	case "", PolicyOwnerWriteAuthenticatedRead:
		return PolicyOwnerWriteAuthenticatedRead, nil
	case PolicyOwnerOnly:
		return PolicyOwnerOnly, nil
	default:
		return "", fmt.Errorf("unknown item policy %q", raw)
	}
}

// CanRead reports whether principal may see item.
func (p Policy) CanRead(principal Principal, item Item) bool {
	if principal.UserID == "" {
		return false
	}
	if p == PolicyOwnerOnly {
		return item.OwnerID == principal.UserID
	}
	return true
}

// CanModify reports whether principal may update or delete item.
func (p Policy) CanModify(principal Principal, item Item) bool {
	return principal.UserID != "" && item.OwnerID == principal.UserID
}

// Store is the persistence surface behind Service.
type Store interface {
	ListItems(ctx context.Context, ownerID string) ([]Item, error)
	GetItem(ctx context.Context, itemID string) (Item, error)
	PutItem(ctx context.Context, item Item) error
	DeleteItem(ctx context.Context, itemID string) error
}

// IDGenerator returns a new item id.
type IDGenerator func() (string, error)

// Service implements Gateway over a Store, enforcing a Policy.
type Service struct {
	store  Store
	policy Policy
	newID  IDGenerator
	now    func() time.Time
}

// NewService builds a policy-enforcing gateway.
func NewService(store Store, policy Policy, newID IDGenerator) *Service {
	if policy == "" {
		policy = PolicyOwnerWriteAuthenticatedRead
	}
	return &Service{store: store, policy: policy, newID: newID, now: time.Now}
}

// List returns the items the principal may read, newest first.
func (s *Service) List(ctx context.Context, principal Principal) ([]Item, error) {
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	ownerFilter := ""
	if s.policy == PolicyOwnerOnly {
		ownerFilter = principal.UserID
	}
	return s.store.ListItems(ctx, ownerFilter)
}

// Get returns one item. Items the principal may not read are reported as
// missing.
func (s *Service) Get(ctx context.Context, principal Principal, itemID string) (Item, error) {
	if principal.UserID == "" {
		return Item{}, ErrUnauthorized
	}
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return Item{}, err
	}
	if !s.policy.CanRead(principal, item) {
		return Item{}, ErrNotFound
	}
	return item, nil
}

// Create stores a new item owned by the principal.
func (s *Service) Create(ctx context.Context, principal Principal, input Input) (Item, error) {
	if principal.UserID == "" {
		return Item{}, ErrUnauthorized
	}
	input, err := input.Normalize()
	if err != nil {
		return Item{}, err
	}
	itemID, err := s.newID()
	if err != nil {
		return Item{}, err
	}
	now := s.now().UTC()
	item := Item{
		ID:          itemID,
		Title:       input.Title,
		Description: input.Description,
		OwnerID:     principal.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.PutItem(ctx, item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Update replaces the editable fields of an owned item.
func (s *Service) Update(ctx context.Context, principal Principal, itemID string, input Input) (Item, error) {
	item, err := s.modifiable(ctx, principal, itemID)
	if err != nil {
		return Item{}, err
	}
	input, err = input.Normalize()
	if err != nil {
		return Item{}, err
	}
	item.Title = input.Title
	item.Description = input.Description
	item.UpdatedAt = s.now().UTC()
	if err := s.store.PutItem(ctx, item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Delete removes an owned item.
func (s *Service) Delete(ctx context.Context, principal Principal, itemID string) error {
	if _, err := s.modifiable(ctx, principal, itemID); err != nil {
		return err
	}
	return s.store.DeleteItem(ctx, itemID)
}

func (s *Service) modifiable(ctx context.Context, principal Principal, itemID string) (Item, error) {
	item, err := s.Get(ctx, principal, itemID)
	if err != nil {
		return Item{}, err
	}
	if !s.policy.CanModify(principal, item) {
		return Item{}, ErrForbidden
	}
	return item, nil
}
