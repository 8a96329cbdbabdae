// Package tasks implements task creation, lookup, listing and mutation on
// behalf of an explicit identity.
package tasks

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/therealutkarshpriyadarshi/tasktracker/internal/config"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/errs"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/guard"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/logging"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/metrics"
	"github.com/therealutkarshpriyadarshi/tasktracker/internal/queue"
	"github.com/therealutkarshpriyadarshi/tasktracker/pkg/models"
)

// Store persists tasks
type Store interface {
	Create(ctx context.Context, t *models.Task) error
	Get(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter, limit, offset int) ([]*models.Task, int, error)
	Update(ctx context.Context, t *models.Task) error
	Delete(ctx context.Context, id int64) error
}

// Service applies validation and the guard around a Store
type Service struct {
	store           Store
	guard           *guard.Guard
	events          queue.Publisher
	logger          *logging.Logger
	defaultPageSize int
	maxPageSize     int
	now             func() time.Time
}

// NewService creates a task service
func NewService(store Store, g *guard.Guard, events queue.Publisher, logger *logging.Logger, paging config.PaginationConfig) *Service {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &Service{
		store:           store,
		guard:           g,
		events:          events,
		logger:          logger,
		defaultPageSize: paging.DefaultPageSize,
		maxPageSize:     paging.MaxPageSize,
		now:             time.Now,
	}
}

// Create validates in and stores a task owned by actor
func (s *Service) Create(ctx context.Context, actor *models.Identity, in Input) (task *models.Task, err error) {
	defer func() { metrics.RecordTaskOperation("create", err) }()

	if err := s.guard.Authorize(actor, nil, guard.ActionCreate); err != nil {
		return nil, err
	}
	if err := validateInput(in, false); err != nil {
		return nil, err
	}

	task = &models.Task{
		OwnerID:     actor.ID,
		Title:       *in.Title,
		Description: *in.Description,
		Status:      models.TaskStatus(*in.Status),
	}
	if err := s.store.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.publish(ctx, models.TaskEventCreated, actor, task)
	return task, nil
}

// Get returns task id if actor may retrieve it
func (s *Service) Get(ctx context.Context, actor *models.Identity, id int64) (task *models.Task, err error) {
	defer func() { metrics.RecordTaskOperation("retrieve", err) }()

	return s.load(ctx, actor, id, guard.ActionRetrieve)
}

// load looks the task up before checking ownership, so a non-owner learns
// that the id exists unless the guard hides foreign tasks.
func (s *Service) load(ctx context.Context, actor *models.Identity, id int64, action guard.Action) (*models.Task, error) {
	if actor == nil {
		return nil, errs.ErrNotAuthenticated
	}

	task, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Authorize(actor, task, action); err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies in to task id. A full update requires every field.
func (s *Service) Update(ctx context.Context, actor *models.Identity, id int64, in Input, partial bool) (task *models.Task, err error) {
	op, action := "update", guard.ActionUpdate
	if partial {
		op, action = "partial_update", guard.ActionPartialUpdate
	}
	defer func() { metrics.RecordTaskOperation(op, err) }()

	task, err = s.load(ctx, actor, id, action)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in, partial); err != nil {
		return nil, err
	}

	if in.Title != nil {
		task.Title = *in.Title
	}
	if in.Description != nil {
		task.Description = *in.Description
	}
	if in.Status != nil {
		task.Status = models.TaskStatus(*in.Status)
	}

	if err := s.store.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	s.publish(ctx, models.TaskEventUpdated, actor, task)
	return task, nil
}

// Delete removes task id if actor may delete it
func (s *Service) Delete(ctx context.Context, actor *models.Identity, id int64) (err error) {
	defer func() { metrics.RecordTaskOperation("delete", err) }()

	task, err := s.load(ctx, actor, id, guard.ActionDelete)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	s.publish(ctx, models.TaskEventDeleted, actor, task)
	return nil
}

// ListQuery holds the raw list parameters of a request
type ListQuery struct {
	Status   string
	Page     string
	PageSize string
}

// List returns the page of tasks visible to actor. Bad status values are a
// validation error; pages outside the result set are errs.ErrInvalidPage.
func (s *Service) List(ctx context.Context, actor *models.Identity, q ListQuery) (page *models.TaskPage, err error) {
	defer func() { metrics.RecordTaskOperation("list", err) }()

	filter, err := s.guard.ScopeQuery(actor)
	if err != nil {
		return nil, err
	}

	filter.Status, err = ParseStatusFilter(q.Status)
	if err != nil {
		return nil, err
	}

	size := s.PageSize(q.PageSize)
	number, err := parsePage(q.Page)
	if err != nil {
		return nil, err
	}
	if number-1 > math.MaxInt32/size {
		return nil, errs.ErrInvalidPage
	}

	items, total, err := s.store.List(ctx, filter, size, (number-1)*size)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if number > 1 && (number-1)*size >= total {
		return nil, errs.ErrInvalidPage
	}

	return &models.TaskPage{Items: items, Total: total, Page: number, PageSize: size}, nil
}

func (s *Service) publish(ctx context.Context, typ models.TaskEventType, actor *models.Identity, task *models.Task) {
	evt := models.TaskEvent{
		Type:       typ,
		TaskID:     task.ID,
		OwnerID:    task.OwnerID,
		ActorID:    actor.ID,
		Status:     task.Status,
		OccurredAt: s.now().UTC(),
	}

	err := s.events.PublishTaskEvent(ctx, evt)
	metrics.RecordTaskEvent(string(typ), err)
	if err != nil {
		s.logger.WithTaskID(task.ID).ErrorWithErr("failed to publish task event", err)
	}
}
