package treesource

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/sforce/pkg/sforce"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSOptions are applied to every connection made for nats:// sources, e.g.
// nats.UserCredentials.
var NATSOptions []nats.Option

func withKeyValue(ctx context.Context, ref string, create bool, fn func(jetstream.KeyValue, string) error) error {
	loc, err := parseNATS(ref)
	if err != nil {
		return err
	}

	opts := append([]nats.Option{nats.Name("sforce tree source")}, NATSOptions...)

	nc, err := nats.Connect(loc.serverURL, opts...)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", loc.serverURL, err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("creating jetstream context: %w", err)
	}

	kv, err := js.KeyValue(ctx, loc.bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) && create {
		kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      loc.bucket,
			Description: "sforce resource trees",
		})
	}

	if err != nil {
		return fmt.Errorf("opening bucket %s: %w", loc.bucket, err)
	}

	return fn(kv, loc.key)
}

// LoadNATS reads a tree stored under nats://host:port/<bucket>/<key>.
func LoadNATS(ctx context.Context, ref string) (sforce.Tree, error) {
	var tree sforce.Tree

	err := withKeyValue(ctx, ref, false, func(kv jetstream.KeyValue, key string) error {
		entry, err := kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				return fmt.Errorf("%w: key %s not found", sforce.ErrTreeSourceUnknown, key)
			}

			return fmt.Errorf("reading key %s: %w", key, err)
		}

		tree, err = Decode(entry.Value())

		return err
	})
	if err != nil {
		return nil, err
	}

	return tree, nil
}

// StoreNATS writes tree under nats://host:port/<bucket>/<key>, creating the
// bucket when needed.
func StoreNATS(ctx context.Context, ref string, tree sforce.Tree) error {
	data, err := Encode(tree)
	if err != nil {
		return err
	}

	return withKeyValue(ctx, ref, true, func(kv jetstream.KeyValue, key string) error {
		_, err := kv.Put(ctx, key, data)
		if err != nil {
			return fmt.Errorf("writing key %s: %w", key, err)
		}

		return nil
	})
}
