package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/prashantkr001/items-crud/internal/item"
)

type itemResponse struct {
	Message string     `json:"message,omitempty"`
	Item    *item.Item `json:"item,omitempty"`
}

type itemListResponse struct {
	Items []item.Item `json:"items"`
}

func (ht *HTTP) itemRoutes(router chi.Router) {
	router.Get("/items", ht.ErrorHandler(ht.ListItems))
	router.Post("/items", ht.ErrorHandler(ht.CreateItem))
	router.Get("/items/{id}", ht.ErrorHandler(ht.GetItem))
	router.Put("/items/{id}", ht.ErrorHandler(ht.UpdateItem))
	router.Delete("/items/{id}", ht.ErrorHandler(ht.DeleteItem))
}

// itemID reads the ID from the path. An ID which is not an integer can never match
// an item, hence it's reported as not found.
func itemID(req *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		return 0, item.ErrNotFound
	}
	return id, nil
}

func (ht *HTTP) ListItems(w http.ResponseWriter, req *http.Request) error {
	list, err := ht.apis.ItemList(req.Context())
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, itemListResponse{Items: list})
}

func (ht *HTTP) GetItem(w http.ResponseWriter, req *http.Request) error {
	id, err := itemID(req)
	if err != nil {
		return err
	}

	it, err := ht.apis.ItemGet(req.Context(), id)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, itemResponse{Item: it})
}

func (ht *HTTP) CreateItem(w http.ResponseWriter, req *http.Request) error {
	payload, err := item.DecodePayload(req.Body)
	if err != nil {
		return err
	}

	createdItem, err := ht.apis.ItemCreate(req.Context(), *payload)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, itemResponse{Message: "Item created", Item: createdItem})
}

func (ht *HTTP) UpdateItem(w http.ResponseWriter, req *http.Request) error {
	payload, err := item.DecodePayload(req.Body)
	if err != nil {
		return err
	}

	id, err := itemID(req)
	if err != nil {
		return err
	}

	updatedItem, err := ht.apis.ItemUpdate(req.Context(), id, *payload)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, itemResponse{Message: "Item updated", Item: updatedItem})
}

func (ht *HTTP) DeleteItem(w http.ResponseWriter, req *http.Request) error {
	id, err := itemID(req)
	if err != nil {
		return err
	}

	err = ht.apis.ItemDelete(req.Context(), id)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, itemResponse{Message: "Item deleted"})
}
