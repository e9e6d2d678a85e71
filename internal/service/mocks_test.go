package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/soladex/dealdesk/internal/domain"
	"github.com/soladex/dealdesk/internal/domain/activity"
	"github.com/soladex/dealdesk/internal/domain/deal"
	"github.com/soladex/dealdesk/internal/domain/pipeline"
	"github.com/soladex/dealdesk/internal/port/broadcast"
	"github.com/soladex/dealdesk/internal/port/database"
	"github.com/soladex/dealdesk/internal/port/directory"
	"github.com/soladex/dealdesk/internal/port/invoicing"
	"github.com/soladex/dealdesk/internal/port/messagequeue"
)

// Ensure the mocks satisfy their ports at compile time.
var (
	_ database.Store        = (*mockStore)(nil)
	_ messagequeue.Queue    = (*mockQueue)(nil)
	_ broadcast.Broadcaster = (*mockBroadcaster)(nil)
	_ invoicing.Issuer      = (*mockIssuer)(nil)
	_ directory.Directory   = (*mockDirectory)(nil)
)

// mockStore is a minimal in-memory implementation of database.Store. It
// mirrors the position and status semantics of the real store closely enough
// to exercise the services.
type mockStore struct {
	pipelines  []pipeline.Pipeline
	stages     []pipeline.Stage
	deals      []deal.Deal
	activities []activity.Activity
	seq        int

	// Error hooks. Set these to inject failures.
	getDealErr  error
	moveDealErr error
	linkErr     error
}

func (m *mockStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

// addPipeline seeds a pipeline with the canonical stage set and returns it.
func (m *mockStore) addPipeline(name string) *pipeline.Pipeline {
	p := pipeline.Pipeline{
		ID:       m.nextID("pipe"),
		Name:     name,
		Position: len(m.pipelines),
		IsActive: true,
	}
	for i, seed := range pipeline.SeedStages() {
		st := pipeline.Stage{
			ID:             m.nextID("stage"),
			PipelineID:     p.ID,
			Name:           seed.Name,
			Color:          seed.Color,
			Position:       i,
			WinProbability: seed.WinProbability,
			IsWonStage:     seed.IsWonStage,
			IsLostStage:    seed.IsLostStage,
			IsActive:       true,
		}
		m.stages = append(m.stages, st)
		p.Stages = append(p.Stages, st)
	}
	m.pipelines = append(m.pipelines, p)
	return &m.pipelines[len(m.pipelines)-1]
}

func (m *mockStore) stageByID(id string) *pipeline.Stage {
	for i := range m.stages {
		if m.stages[i].ID == id {
			return &m.stages[i]
		}
	}
	return nil
}

func (m *mockStore) dealByID(id string) *deal.Deal {
	for i := range m.deals {
		if m.deals[i].ID == id {
			return &m.deals[i]
		}
	}
	return nil
}

func (m *mockStore) stageCount(stageID string) int {
	n := 0
	for i := range m.deals {
		if m.deals[i].StageID == stageID {
			n++
		}
	}
	return n
}

// --- Pipelines ---

func (m *mockStore) ListPipelines(_ context.Context) ([]pipeline.Pipeline, error) {
	return m.pipelines, nil
}

func (m *mockStore) GetPipeline(_ context.Context, id string) (*pipeline.Pipeline, error) {
	for i := range m.pipelines {
		if m.pipelines[i].ID == id {
			p := m.pipelines[i]
			p.Stages = nil
			for _, st := range m.stages {
				if st.PipelineID == id {
					p.Stages = append(p.Stages, st)
				}
			}
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CreatePipeline(_ context.Context, req pipeline.CreateRequest) (*pipeline.Pipeline, error) {
	p := m.addPipeline(req.Name)
	p.Description = req.Description
	p.Color = req.Color
	return p, nil
}

func (m *mockStore) UpdatePipeline(_ context.Context, id string, req pipeline.UpdateRequest) (*pipeline.Pipeline, error) {
	for i := range m.pipelines {
		if m.pipelines[i].ID == id {
			if req.Name != nil {
				m.pipelines[i].Name = *req.Name
			}
			if req.IsActive != nil {
				m.pipelines[i].IsActive = *req.IsActive
			}
			return &m.pipelines[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) DeletePipeline(_ context.Context, id string) error {
	for i := range m.pipelines {
		if m.pipelines[i].ID == id {
			m.pipelines[i].IsActive = false
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ReorderPipelines(_ context.Context, ids []string) error {
	for pos, id := range ids {
		for i := range m.pipelines {
			if m.pipelines[i].ID == id {
				m.pipelines[i].Position = pos
			}
		}
	}
	return nil
}

// --- Stages ---

func (m *mockStore) GetStage(_ context.Context, id string) (*pipeline.Stage, error) {
	if st := m.stageByID(id); st != nil {
		cp := *st
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListStages(_ context.Context, pipelineID string) ([]pipeline.Stage, error) {
	var out []pipeline.Stage
	for _, st := range m.stages {
		if st.PipelineID == pipelineID {
			out = append(out, st)
		}
	}
	return out, nil
}

func (m *mockStore) ListAllStages(_ context.Context) ([]pipeline.Stage, error) {
	return m.stages, nil
}

func (m *mockStore) CreateStage(_ context.Context, req pipeline.CreateStageRequest) (*pipeline.Stage, error) {
	position := 0
	for _, st := range m.stages {
		if st.PipelineID == req.PipelineID {
			position++
		}
	}
	st := pipeline.Stage{
		ID:             m.nextID("stage"),
		PipelineID:     req.PipelineID,
		Name:           req.Name,
		Color:          req.Color,
		Position:       position,
		WinProbability: req.WinProbability,
		IsWonStage:     req.IsWonStage,
		IsLostStage:    req.IsLostStage,
		IsActive:       true,
	}
	m.stages = append(m.stages, st)
	return &st, nil
}

func (m *mockStore) UpdateStage(_ context.Context, id string, req pipeline.UpdateStageRequest) (*pipeline.Stage, error) {
	st := m.stageByID(id)
	if st == nil {
		return nil, domain.ErrNotFound
	}
	if req.Name != nil {
		st.Name = *req.Name
	}
	if req.WinProbability != nil {
		st.WinProbability = *req.WinProbability
	}
	if req.IsWonStage != nil {
		st.IsWonStage = *req.IsWonStage
	}
	if req.IsLostStage != nil {
		st.IsLostStage = *req.IsLostStage
	}
	if req.IsActive != nil {
		st.IsActive = *req.IsActive
	}
	cp := *st
	return &cp, nil
}

func (m *mockStore) DeleteStage(_ context.Context, id, moveDealsTo string) error {
	st := m.stageByID(id)
	if st == nil {
		return domain.ErrNotFound
	}
	st.IsActive = false
	if moveDealsTo == "" {
		return nil
	}
	target := m.stageByID(moveDealsTo)
	if target == nil {
		return domain.ErrNotFound
	}
	base := m.stageCount(moveDealsTo)
	now := time.Now()
	for i := range m.deals {
		if m.deals[i].StageID == id {
			m.deals[i].StageID = target.ID
			m.deals[i].PipelineID = target.PipelineID
			m.deals[i].Position = base
			base++
			deal.ApplyStageFlags(&m.deals[i], target, now)
		}
	}
	return nil
}

func (m *mockStore) ReorderStages(_ context.Context, pipelineID string, ids []string) error {
	for pos, id := range ids {
		if st := m.stageByID(id); st != nil && st.PipelineID == pipelineID {
			st.Position = pos
		}
	}
	return nil
}

// --- Deals ---

func (m *mockStore) GetDeal(_ context.Context, id string) (*deal.Deal, error) {
	if m.getDealErr != nil {
		return nil, m.getDealErr
	}
	if d := m.dealByID(id); d != nil {
		cp := *d
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListDeals(_ context.Context, pipelineID string) ([]deal.Deal, error) {
	if pipelineID == "" {
		return m.deals, nil
	}
	var out []deal.Deal
	for _, d := range m.deals {
		if d.PipelineID == pipelineID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockStore) ListDealsByPipeline(_ context.Context, pipelineID string, f deal.Filter) ([]deal.Deal, error) {
	var out []deal.Deal
	for _, d := range m.deals {
		if d.PipelineID != pipelineID {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.Priority != "" && d.Priority != f.Priority {
			continue
		}
		if f.AssignedTo != "" && d.AssignedTo != f.AssignedTo {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (m *mockStore) ListDealsForClient(_ context.Context, clientID string) ([]deal.Deal, error) {
	var out []deal.Deal
	for _, d := range m.deals {
		if d.ClientID == clientID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockStore) CreateDeal(_ context.Context, req deal.CreateRequest, actor string) (*deal.Deal, error) {
	st := m.stageByID(req.StageID)
	if st == nil {
		return nil, domain.ErrNotFound
	}
	if st.PipelineID != req.PipelineID {
		return nil, domain.ErrValidation
	}
	d := deal.Deal{
		ID:                m.nextID("deal"),
		PipelineID:        req.PipelineID,
		StageID:           req.StageID,
		ClientID:          req.ClientID,
		Title:             req.Title,
		Value:             req.Value,
		Currency:          req.Currency,
		Status:            deal.StatusOpen,
		Priority:          req.Priority,
		ExpectedCloseDate: req.ExpectedCloseDate,
		AssignedTo:        req.AssignedTo,
		Position:          m.stageCount(req.StageID),
		CreatedBy:         actor,
		CreatedAt:         time.Now(),
	}
	m.deals = append(m.deals, d)
	m.appendActivity(d.ID, activity.TypeNote, "Deal created", nil, actor)
	return &d, nil
}

func (m *mockStore) UpdateDeal(_ context.Context, id string, req deal.UpdateRequest) (*deal.Deal, error) {
	d := m.dealByID(id)
	if d == nil {
		return nil, domain.ErrNotFound
	}
	if req.Title != nil {
		d.Title = *req.Title
	}
	if req.Value != nil {
		d.Value = *req.Value
	}
	if req.ClientID != nil {
		d.ClientID = *req.ClientID
	}
	if req.Priority != nil {
		d.Priority = *req.Priority
	}
	cp := *d
	return &cp, nil
}

func (m *mockStore) MoveDeal(_ context.Context, id, stageID string, position int, actor string) (*deal.Deal, error) {
	if m.moveDealErr != nil {
		return nil, m.moveDealErr
	}
	d := m.dealByID(id)
	if d == nil {
		return nil, domain.ErrNotFound
	}
	target := m.stageByID(stageID)
	if target == nil {
		return nil, domain.ErrNotFound
	}
	if d.StageID == stageID && d.Position == position {
		cp := *d
		return &cp, nil
	}

	maxPos := m.stageCount(stageID)
	if d.StageID == stageID {
		maxPos--
	}
	if position < 0 {
		position = 0
	}
	if position > maxPos {
		position = maxPos
	}

	for i := range m.deals {
		if m.deals[i].ID == id {
			continue
		}
		if m.deals[i].StageID == d.StageID && m.deals[i].Position > d.Position {
			m.deals[i].Position--
		}
		if m.deals[i].StageID == stageID && m.deals[i].Position >= position {
			m.deals[i].Position++
		}
	}

	stageChanged := d.StageID != stageID
	deal.ApplyStageFlags(d, target, time.Now())
	d.StageID = stageID
	d.PipelineID = target.PipelineID
	d.Position = position

	if stageChanged {
		m.appendActivity(d.ID, activity.TypeStageChange, "Moved", activity.Metadata{
			"to_stage_id": stageID,
		}, actor)
	}
	cp := *d
	return &cp, nil
}

func (m *mockStore) UpdateDealStatus(_ context.Context, id string, status deal.Status, lostReason, actor string) (*deal.Deal, error) {
	d := m.dealByID(id)
	if d == nil {
		return nil, domain.ErrNotFound
	}
	old := d.Status
	d.Status = status
	switch status {
	case deal.StatusWon, deal.StatusLost:
		if old != status {
			now := time.Now()
			d.ActualCloseDate = &now
		}
	case deal.StatusOpen:
		d.ActualCloseDate = nil
	}
	if status == deal.StatusLost && lostReason != "" {
		d.LostReason = lostReason
	}
	if old != status {
		m.appendActivity(d.ID, activity.TypeStatusChange, "Status changed", activity.Metadata{
			"old_status": string(old), "new_status": string(status),
		}, actor)
	}
	cp := *d
	return &cp, nil
}

func (m *mockStore) DeleteDeal(_ context.Context, id string) error {
	d := m.dealByID(id)
	if d == nil {
		return domain.ErrNotFound
	}
	stageID, position := d.StageID, d.Position
	for i := range m.deals {
		if m.deals[i].ID == id {
			m.deals = append(m.deals[:i], m.deals[i+1:]...)
			break
		}
	}
	for i := range m.deals {
		if m.deals[i].StageID == stageID && m.deals[i].Position > position {
			m.deals[i].Position--
		}
	}
	return nil
}

func (m *mockStore) LinkDealInvoice(_ context.Context, id, invoiceID, invoiceNumber, actor string) error {
	if m.linkErr != nil {
		return m.linkErr
	}
	d := m.dealByID(id)
	if d == nil {
		return domain.ErrNotFound
	}
	if d.WonInvoiceID != "" {
		return domain.ErrConflict
	}
	d.WonInvoiceID = invoiceID
	m.appendActivity(d.ID, activity.TypeNote, "Invoice "+invoiceNumber+" created from deal", activity.Metadata{
		"invoice_id": invoiceID, "invoice_number": invoiceNumber,
	}, actor)
	return nil
}

// --- Activities ---

func (m *mockStore) appendActivity(dealID string, typ activity.Type, title string, meta activity.Metadata, actor string) {
	m.activities = append(m.activities, activity.Activity{
		ID:        m.nextID("act"),
		DealID:    dealID,
		Type:      typ,
		Title:     title,
		Metadata:  meta,
		CreatedBy: actor,
		CreatedAt: time.Now(),
	})
}

func (m *mockStore) GetActivity(_ context.Context, id string) (*activity.Activity, error) {
	for i := range m.activities {
		if m.activities[i].ID == id {
			cp := m.activities[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListDealActivities(_ context.Context, dealID string) ([]activity.Activity, error) {
	var out []activity.Activity
	for _, a := range m.activities {
		if a.DealID == dealID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) ListScheduledActivities(_ context.Context, actorID string, daysAhead, limit int) ([]activity.Activity, error) {
	cutoff := time.Now().AddDate(0, 0, daysAhead)
	var out []activity.Activity
	for _, a := range m.activities {
		if a.IsCompleted || a.ScheduledAt == nil {
			continue
		}
		if a.ScheduledAt.After(cutoff) {
			continue
		}
		if actorID != "" && a.CreatedBy != actorID {
			continue
		}
		out = append(out, a)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *mockStore) CreateActivity(_ context.Context, req activity.CreateRequest, actor string) (*activity.Activity, error) {
	a := activity.Activity{
		ID:          m.nextID("act"),
		DealID:      req.DealID,
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		ScheduledAt: req.ScheduledAt,
		CreatedBy:   actor,
		CreatedAt:   time.Now(),
	}
	m.activities = append(m.activities, a)
	return &a, nil
}

func (m *mockStore) UpdateActivity(_ context.Context, id string, req activity.UpdateRequest) (*activity.Activity, error) {
	for i := range m.activities {
		if m.activities[i].ID == id {
			if req.Title != nil {
				m.activities[i].Title = *req.Title
			}
			if req.ScheduledAt != nil {
				m.activities[i].ScheduledAt = req.ScheduledAt
			}
			cp := m.activities[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CompleteActivity(_ context.Context, id string) (*activity.Activity, error) {
	for i := range m.activities {
		if m.activities[i].ID == id {
			if !m.activities[i].IsCompleted {
				now := time.Now()
				m.activities[i].IsCompleted = true
				m.activities[i].CompletedAt = &now
			}
			cp := m.activities[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) DeleteActivity(_ context.Context, id string) error {
	for i := range m.activities {
		if m.activities[i].ID == id {
			m.activities = append(m.activities[:i], m.activities[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

// --- Other mocks ---

// mockQueue records published messages.
type mockQueue struct {
	mu        sync.Mutex
	published []string // subjects in publish order
	publishEr error
}

func (m *mockQueue) Publish(_ context.Context, subject string, _ []byte) error {
	if m.publishEr != nil {
		return m.publishEr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, subject)
	return nil
}

func (m *mockQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (m *mockQueue) Drain() error      { return nil }
func (m *mockQueue) Close() error      { return nil }
func (m *mockQueue) IsConnected() bool { return true }

func (m *mockQueue) subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.published...)
}

// mockBroadcaster records broadcast event types.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (m *mockBroadcaster) BroadcastEvent(_ context.Context, eventType string, _ any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventType)
}

func (m *mockBroadcaster) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

// mockIssuer returns a canned draft or an injected error.
type mockIssuer struct {
	draft *invoicing.Draft
	err   error
	calls int
}

func (m *mockIssuer) CreateDraft(_ context.Context, _ invoicing.DraftRequest) (*invoicing.Draft, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.draft, nil
}

// mockDirectory resolves from fixed maps.
type mockDirectory struct {
	clients map[string]*directory.Client
	users   map[string]*directory.User
}

func (m *mockDirectory) GetClient(_ context.Context, id string) (*directory.Client, error) {
	if c, ok := m.clients[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockDirectory) GetUser(_ context.Context, id string) (*directory.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}
