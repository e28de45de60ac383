package kafka

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKgoOptsFromCfg(t *testing.T) {
	requirer := require.New(t)
	cfg := &Config{
		Seeds:         []string{"localhost:9092"},
		RetryTimeout:  time.Second,
		FetchMaxBytes: 1024,
	}

	producerOpts, err := kgoOptsFromCfg(cfg)
	requirer.NoError(err)

	cfg.Topics = []string{"item_create"}
	cfg.ConsumerGroup = "items-crud"
	consumerOpts, err := kgoOptsFromCfg(cfg)
	requirer.NoError(err)

	// consumer group, topics, session timeout & disabled auto commit
	assert.Len(t, consumerOpts, len(producerOpts)+4)

	cfg.EnableAutoCommit = true
	autoCommitOpts, err := kgoOptsFromCfg(cfg)
	requirer.NoError(err)
	assert.Len(t, autoCommitOpts, len(producerOpts)+3)

	cfg.AuthMechanism = "sasl"
	saslOpts, err := kgoOptsFromCfg(cfg)
	requirer.NoError(err)
	assert.Len(t, saslOpts, len(autoCommitOpts)+1)
}

func TestKgoDialer(t *testing.T) {
	requirer := require.New(t)

	dialer, err := kgoDialer(&Config{RetryTimeout: time.Second})
	requirer.NoError(err)
	requirer.Nil(dialer.Config)

	_, err = kgoDialer(&Config{CACertificate: "%%not-base64%%"})
	requirer.Error(err)

	_, err = kgoDialer(&Config{CACertificate: base64.StdEncoding.EncodeToString([]byte("not a pem"))})
	requirer.Error(err)

	_, err = kgoOptsFromCfg(&Config{
		EnableTLSDialer: true,
		CACertificate:   base64.StdEncoding.EncodeToString([]byte("not a pem")),
	})
	requirer.Error(err)
}
