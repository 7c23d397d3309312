package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"

	"github.com/PranayGaynarIKF/Address-Book-sub002/internal/testutil"
)

func TestNewProducer_Compression(t *testing.T) {
	tests := []struct {
		name        string
		compression string
		want        kafka.Compression
	}{
		{name: "default is snappy", compression: "", want: kafka.Snappy},
		{name: "gzip", compression: "gzip", want: kafka.Gzip},
		{name: "lz4", compression: "lz4", want: kafka.Lz4},
		{name: "zstd", compression: "zstd", want: kafka.Zstd},
		{name: "none", compression: "none", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProducer(ProducerConfig{
				Brokers:     []string{"localhost:9092"},
				Topic:       "contact-events",
				Compression: tt.compression,
			}, testutil.Logger())
			defer p.Close()

			assert.Equal(t, tt.want, p.writer.Compression)
			assert.Equal(t, "contact-events", p.topic)
		})
	}
}

func TestPing_Unreachable(t *testing.T) {
	p := NewProducer(ProducerConfig{Brokers: []string{"127.0.0.1:1"}}, testutil.Logger())
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Error(t, p.Ping(ctx))
}
