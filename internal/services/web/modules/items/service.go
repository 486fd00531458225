package items

import (
	"context"
	"errors"

	itemdomain "github.com/louisbranch/itemdesk/internal/items"
	"github.com/louisbranch/itemdesk/internal/platform/timeouts"
	"github.com/louisbranch/itemdesk/internal/services/web/navigation"
	"github.com/louisbranch/itemdesk/internal/services/web/platform/flash"
	"github.com/louisbranch/itemdesk/internal/services/web/querycache"
	"github.com/louisbranch/itemdesk/internal/services/web/routepath"
	"github.com/louisbranch/itemdesk/internal/services/web/webclient"
)

// ItemsKey prefixes every cached item query.
var ItemsKey = querycache.Key{"items"}

// Items are shared between users, so every page view refetches them.
const itemsMaxAge = 0

var errNoGateway = errors.New("item gateway is not configured")

type service struct {
	gateway itemdomain.Gateway
	policy  itemdomain.Policy
}

func newService(gateway itemdomain.Gateway, policy itemdomain.Policy) service {
	if policy == "" {
		policy = itemdomain.PolicyOwnerWriteAuthenticatedRead
	}
	return service{gateway: gateway, policy: policy}
}

// Cached entries are keyed by user so a browser that changes hands never
// sees the previous user's listing.
func listKey(p itemdomain.Principal) querycache.Key {
	return querycache.Key{ItemsKey[0], p.UserID}
}

func itemKey(p itemdomain.Principal, itemID string) querycache.Key {
	return querycache.Key{ItemsKey[0], p.UserID, itemID}
}

func (s service) list(ctx context.Context, p itemdomain.Principal) ([]itemdomain.Item, error) {
	if s.gateway == nil {
		return nil, errNoGateway
	}
	return query(ctx, listKey(p), func(ctx context.Context) ([]itemdomain.Item, error) {
		return s.gateway.List(ctx, p)
	})
}

func (s service) get(ctx context.Context, p itemdomain.Principal, itemID string) (itemdomain.Item, error) {
	if s.gateway == nil {
		return itemdomain.Item{}, errNoGateway
	}
	return query(ctx, itemKey(p, itemID), func(ctx context.Context) (itemdomain.Item, error) {
		return s.gateway.Get(ctx, p, itemID)
	})
}

func (s service) create(ctx context.Context, p itemdomain.Principal, input itemdomain.Input) error {
	if s.gateway == nil {
		return errNoGateway
	}
	return mutate(ctx, "notice.item_created", func(ctx context.Context) error {
		_, err := s.gateway.Create(ctx, p, input)
		return err
	})
}

func (s service) update(ctx context.Context, p itemdomain.Principal, itemID string, input itemdomain.Input) error {
	if s.gateway == nil {
		return errNoGateway
	}
	return mutate(ctx, "notice.item_updated", func(ctx context.Context) error {
		_, err := s.gateway.Update(ctx, p, itemID, input)
		return err
	})
}

func (s service) remove(ctx context.Context, p itemdomain.Principal, itemID string) error {
	if s.gateway == nil {
		return errNoGateway
	}
	return mutate(ctx, "notice.item_deleted", func(ctx context.Context) error {
		return s.gateway.Delete(ctx, p, itemID)
	})
}

func (s service) canModify(p itemdomain.Principal, item itemdomain.Item) bool {
	return s.policy.CanModify(p, item)
}

func bounded[T any](fetch func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		ctx, cancel := context.WithTimeout(ctx, timeouts.BackendRequest)
		defer cancel()
		return fetch(ctx)
	}
}

// query reads through the browser's cache when one is attached to ctx.
func query[T any](ctx context.Context, key querycache.Key, fetch func(context.Context) (T, error)) (T, error) {
	client := webclient.FromContext(ctx)
	if client == nil {
		return bounded(fetch)(ctx)
	}
	return querycache.Fetch(ctx, client.Cache(), key, bounded(fetch), querycache.MaxAge(itemsMaxAge))
}

// mutate runs fn and, on success, invalidates every item query, queues
// noticeKey and sends the browser back to the listing.
func mutate(ctx context.Context, noticeKey string, fn func(context.Context) error) error {
	run := func(ctx context.Context) error {
		_, err := bounded(func(ctx context.Context) (struct{}, error) {
			return struct{}{}, fn(ctx)
		})(ctx)
		return err
	}
	client := webclient.FromContext(ctx)
	if client == nil {
		return run(ctx)
	}
	nav := navigation.FromContext(ctx)
	return client.Cache().Mutate(ctx, querycache.Mutation{
		Fn: run,
		OnSuccess: func(context.Context) {
			client.Cache().Invalidate(ItemsKey)
			nav.Notify(flash.Success(noticeKey))
			nav.Navigate(routepath.ItemsPrefix)
		},
	})
}
