package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/soladex/dealdesk/internal/domain"
	"github.com/soladex/dealdesk/internal/domain/deal"
	"github.com/soladex/dealdesk/internal/port/directory"
)

// Resolver attaches directory records (client, assignee) to deals. Lookups
// are best effort: a missing or unreachable directory leaves the reference
// unresolved instead of failing the board.
type Resolver struct {
	dir         directory.Directory
	maxParallel int
}

// NewResolver creates a resolver. maxParallel bounds concurrent directory
// lookups per batch.
func NewResolver(dir directory.Directory, maxParallel int) *Resolver {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Resolver{dir: dir, maxParallel: maxParallel}
}

// ResolveDeals populates Client and Assignee on every deal in place. Each
// distinct directory id is fetched once per batch.
func (r *Resolver) ResolveDeals(ctx context.Context, deals []deal.Deal) {
	if r.dir == nil || len(deals) == 0 {
		return
	}

	clientIDs := map[string]struct{}{}
	userIDs := map[string]struct{}{}
	for i := range deals {
		if deals[i].ClientID != "" {
			clientIDs[deals[i].ClientID] = struct{}{}
		}
		if deals[i].AssignedTo != "" {
			userIDs[deals[i].AssignedTo] = struct{}{}
		}
	}

	var mu sync.Mutex
	clients := make(map[string]*directory.Client, len(clientIDs))
	users := make(map[string]*directory.User, len(userIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxParallel)

	for id := range clientIDs {
		g.Go(func() error {
			c, err := r.dir.GetClient(gctx, id)
			if err != nil {
				logResolveMiss("client", id, err)
				return nil
			}
			mu.Lock()
			clients[id] = c
			mu.Unlock()
			return nil
		})
	}
	for id := range userIDs {
		g.Go(func() error {
			u, err := r.dir.GetUser(gctx, id)
			if err != nil {
				logResolveMiss("user", id, err)
				return nil
			}
			mu.Lock()
			users[id] = u
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i := range deals {
		if c, ok := clients[deals[i].ClientID]; ok {
			deals[i].Client = &deal.Party{
				ID: c.ID, Name: c.Name, Email: c.Email,
			}
		}
		if u, ok := users[deals[i].AssignedTo]; ok {
			deals[i].Assignee = &deal.Party{
				ID: u.ID, Name: u.Name, Email: u.Email, AvatarURL: u.AvatarURL,
			}
		}
	}
}

// ResolveDeal populates the directory references of a single deal.
func (r *Resolver) ResolveDeal(ctx context.Context, d *deal.Deal) {
	if d == nil {
		return
	}
	batch := []deal.Deal{*d}
	r.ResolveDeals(ctx, batch)
	d.Client = batch[0].Client
	d.Assignee = batch[0].Assignee
}

func logResolveMiss(kind, id string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		slog.Debug("directory record missing", "kind", kind, "id", id)
		return
	}
	slog.Warn("directory lookup failed", "kind", kind, "id", id, "error", err)
}
