package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type document struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func TestDecodeJSON(t *testing.T) {
	doc, err := DecodeJSON[document]([]byte(`{"id":"d1","text":"hello world"}`))
	require.NoError(t, err)
	assert.Equal(t, document{ID: "d1", Text: "hello world"}, doc)

	_, err = DecodeJSON[document]([]byte(`{"id":`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding kafka message")
}
