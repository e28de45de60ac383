package api

import (
	"context"

	"github.com/prashantkr001/items-crud/internal/item"
)

func (ap *API) ItemList(ctx context.Context) ([]item.Item, error) {
	return ap.itemService.List(ctx)
}

func (ap *API) ItemGet(ctx context.Context, id int64) (*item.Item, error) {
	return ap.itemService.Get(ctx, id)
}

func (ap *API) ItemCreate(ctx context.Context, payload item.Payload) (*item.Item, error) {
	createdItem, err := ap.itemService.Create(ctx, payload)
	if err != nil {
		return nil, err
	}
	return createdItem, nil
}

func (ap *API) ItemUpdate(ctx context.Context, id int64, payload item.Payload) (*item.Item, error) {
	updatedItem, err := ap.itemService.Update(ctx, id, payload)
	if err != nil {
		return nil, err
	}
	return updatedItem, nil
}

func (ap *API) ItemDelete(ctx context.Context, id int64) error {
	return ap.itemService.Delete(ctx, id)
}
