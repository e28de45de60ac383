package kafka

import (
	"bytes"
	"context"
	"fmt"

	"github.com/prashantkr001/items-crud/internal/item"
	"github.com/prashantkr001/items-crud/internal/pkg/logger"
)

// ItemCreate creates an item from a message in the same format as the HTTP create request.
func (kfk *Kafka) ItemCreate(ctx context.Context, payload []byte) error {
	createPayload, err := item.DecodePayload(bytes.NewReader(payload))
	if err != nil {
		// invalid messages can never succeed, nack-ing them would only get the same message
		// redelivered forever. So it's logged and committed.
		logger.ErrWithStacktrace(fmt.Errorf("%q %w", string(payload), err))
		return nil
	}

	createdItem, err := kfk.apiSvc.ItemCreate(ctx, *createPayload)
	if item.AsInputError(err) != nil {
		logger.ErrWithStacktrace(fmt.Errorf("%q %w", string(payload), err))
		return nil
	}
	if err != nil {
		return err
	}

	logger.DebugCtx(ctx, fmt.Sprintf("item %d created from kafka", createdItem.ID))
	return nil
}
