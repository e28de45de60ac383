// Package item is responsible for implementing all features required for handling Item
package item

import (
	"context"
	"fmt"
	"time"

	"github.com/naughtygopher/errors"

	"github.com/prashantkr001/items-crud/internal/pkg/logger"
)

var (
	ErrInvalidInput = errors.Validation("Invalid input")
	ErrNotFound     = errors.NotFound("Item not found")
)

type Item struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Service struct holds all the dependencies required, as interfaces. e.g. persistent store interface,
// cache interface etc.
// And all its usecases as methods(with pointer receiver) of this struct.
type Service struct {
	persistentStore persistentStore
	publisher       publisher
}

// NewService accepts any external dependencies required for the item service.
// e.g. DB driver.
func NewService(storage persistentStore, pub publisher) (*Service, error) {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &Service{
		persistentStore: storage,
		publisher:       pub,
	}, nil
}

func (svc *Service) List(ctx context.Context) ([]Item, error) {
	list, err := svc.persistentStore.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	if list == nil {
		list = []Item{}
	}

	return list, nil
}

func (svc *Service) Get(ctx context.Context, id int64) (*Item, error) {
	return svc.persistentStore.Item(ctx, id)
}

func (svc *Service) Create(ctx context.Context, payload Payload) (*Item, error) {
	err := payload.Validate()
	if err != nil {
		return nil, err
	}

	newItem, err := svc.persistentStore.InsertItem(ctx, Item{Name: *payload.Name, Price: *payload.Price})
	if err != nil {
		return nil, err
	}

	svc.publish(EventCreated, *newItem)

	return newItem, nil
}

// Update overwrites name and price of an existing item. The existence check and the
// update are done by the store within a single transaction.
func (svc *Service) Update(ctx context.Context, id int64, payload Payload) (*Item, error) {
	err := payload.Validate()
	if err != nil {
		return nil, err
	}

	updated, err := svc.persistentStore.UpdateItem(ctx, Item{ID: id, Name: *payload.Name, Price: *payload.Price})
	if err != nil {
		return nil, err
	}

	svc.publish(EventUpdated, *updated)

	return updated, nil
}

func (svc *Service) Delete(ctx context.Context, id int64) error {
	err := svc.persistentStore.DeleteItem(ctx, id)
	if err != nil {
		return err
	}

	svc.publish(EventDeleted, Item{ID: id})

	return nil
}

// publish pushes the event for all dependencies to consume. It never blocks the caller,
// and a failure only gets logged.
func (svc *Service) publish(evtType EventType, it Item) {
	evt := NewEvent(evtType, it)
	go func() {
		const publishTimeout = time.Second * 3
		gctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		perr := svc.publisher.Publish(gctx, evt)
		if perr != nil {
			logger.ErrWithStacktrace(perr)
			return
		}
		logger.Debug(fmt.Sprintf("published %s: %d", evt.Type, evt.Item.ID))
	}()
}
