package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

type mongoTxRunner struct {
	client  *mongo.Client
	enabled bool
}

// NewMongoTxRunner returns a runner backed by MongoDB multi-document
// transactions. When enabled is false fn runs without a transaction, which
// suits standalone servers that cannot host one.
func NewMongoTxRunner(client *mongo.Client, enabled bool) TxRunner {
	return &mongoTxRunner{client: client, enabled: enabled}
}

func (t *mongoTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
