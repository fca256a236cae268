package mongodb

import (
	"context"
	"errors"
	"strings"

	"github.com/beemailley/final-project-backend-bm/internal/storage"
	"go.mongodb.org/mongo-driver/mongo"
)

// classify marks timeouts, network failures and a closed client as
// storage.ErrUnavailable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, mongo.ErrClientDisconnected) ||
		mongo.IsTimeout(err) ||
		mongo.IsNetworkError(err) {
		return storage.Unavailable(err)
	}
	return err
}

// duplicateIndex returns the index named in a duplicate key error, or "".
func duplicateIndex(err error, names ...string) string {
	if !mongo.IsDuplicateKeyError(err) {
		return ""
	}
	msg := err.Error()
	for _, name := range names {
		if strings.Contains(msg, name) {
			return name
		}
	}
	return ""
}
