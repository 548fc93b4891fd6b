package mongodb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("connection reset"), false},
		{"standalone server", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}, true},
		{"illegal operation code", mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"}, true},
		{"unrelated command error", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}, false},
		{"keyword match", errors.New("session operations are not supported on this server"), true},
		{"single keyword is not enough", errors.New("transaction failed"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNotSupported(tt.err))
		})
	}
}
