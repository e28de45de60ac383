package item

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields map[string][]string
	}{
		{
			name: "valid",
			body: `{"name":"Monitor","price":300}`,
		},
		{
			name: "fractional price",
			body: `{"name":"Cable","price":4.99}`,
		},
		{
			name:   "missing name",
			body:   `{"price":300}`,
			fields: map[string][]string{"name": {msgRequired}},
		},
		{
			name:   "missing both",
			body:   `{}`,
			fields: map[string][]string{"name": {msgRequired}, "price": {msgRequired}},
		},
		{
			name:   "null name",
			body:   `{"name":null,"price":300}`,
			fields: map[string][]string{"name": {msgNull}},
		},
		{
			name:   "null price",
			body:   `{"name":"Monitor","price":null}`,
			fields: map[string][]string{"price": {msgNull}},
		},
		{
			name: "numeric string price",
			body: `{"name":"Monitor","price":"300"}`,
		},
		{
			name:   "unparsable string price",
			body:   `{"name":"Monitor","price":"abc"}`,
			fields: map[string][]string{"price": {msgNotNumber}},
		},
		{
			name:   "boolean price",
			body:   `{"name":"Monitor","price":true}`,
			fields: map[string][]string{"price": {msgNotNumber}},
		},
		{
			name:   "object price",
			body:   `{"name":"Monitor","price":{"amount":300}}`,
			fields: map[string][]string{"price": {msgNotNumber}},
		},
		{
			name:   "infinite price",
			body:   `{"name":"Monitor","price":"inf"}`,
			fields: map[string][]string{"price": {msgNotFinite}},
		},
		{
			name:   "unknown field",
			body:   `{"name":"Monitor","price":300,"extra":1}`,
			fields: map[string][]string{"extra": {msgUnknownField}},
		},
		{
			name:   "non numeric price",
			body:   `{"name":"Monitor","price":"three hundred"}`,
			fields: map[string][]string{"price": {msgNotNumber}},
		},
		{
			name:   "non string name",
			body:   `{"name":42,"price":300}`,
			fields: map[string][]string{"name": {msgNotString}},
		},
		{
			name:   "type error and missing field are both reported",
			body:   `{"name":false}`,
			fields: map[string][]string{"name": {msgNotString}, "price": {msgRequired}},
		},
		{
			name:   "empty name",
			body:   `{"name":"","price":300}`,
			fields: map[string][]string{"name": {"Shorter than minimum length 1."}},
		},
		{
			name:   "not an object",
			body:   `[1,2]`,
			fields: map[string][]string{schemaField: {msgInvalidType}},
		},
		{
			name:   "empty body",
			body:   ``,
			fields: map[string][]string{schemaField: {msgInvalidType}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := DecodePayload(strings.NewReader(tc.body))
			if tc.fields == nil {
				require.NoError(t, err)
				require.NotNil(t, payload.Name)
				require.NotNil(t, payload.Price)
				return
			}

			require.ErrorIs(t, err, ErrInvalidInput)
			ierr := AsInputError(err)
			require.NotNil(t, ierr)
			assert.Equal(t, tc.fields, ierr.Fields)
		})
	}
}

func TestPayloadValues(t *testing.T) {
	tests := []struct {
		body  string
		price float64
	}{
		{body: `{"name":"Monitor","price":300}`, price: 300},
		{body: `{"name":"Monitor","price":"300"}`, price: 300},
		{body: `{"name":"Monitor","price":"4.99"}`, price: 4.99},
		{body: `{"name":"Monitor","price":0}`, price: 0},
	}

	for _, tc := range tests {
		payload, err := DecodePayload(strings.NewReader(tc.body))
		require.NoError(t, err, tc.body)
		assert.Equal(t, "Monitor", *payload.Name, tc.body)
		assert.InDelta(t, tc.price, *payload.Price, 0, tc.body)
	}
}

func TestAsInputError(t *testing.T) {
	assert.Nil(t, AsInputError(ErrNotFound))
	assert.Nil(t, AsInputError(nil))

	payload := NewPayload("", 1)
	err := payload.Validate()
	ierr := AsInputError(err)
	require.NotNil(t, ierr)
	assert.Contains(t, ierr.Fields, "name")
	assert.Contains(t, err.Error(), "name")
}
