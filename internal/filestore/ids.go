package filestore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/abhisek/studentai/internal/store"
)

// IDAllocator picks the id for a new record given the ids already in use.
type IDAllocator interface {
	Allocate(ctx context.Context, collection string, existing []string) (string, error)
}

// MaxKeyAllocator assigns one past the largest numeric id in use. Deleting
// the newest record lets its id be reused, but never while it is live.
type MaxKeyAllocator struct{}

func (MaxKeyAllocator) Allocate(_ context.Context, _ string, existing []string) (string, error) {
	return strconv.FormatInt(maxNumericID(existing)+1, 10), nil
}

// LengthAllocator assigns len(existing)+1. After a delete this can hand
// out an id that is still live; it exists to reproduce that failure.
type LengthAllocator struct{}

func (LengthAllocator) Allocate(_ context.Context, _ string, existing []string) (string, error) {
	return strconv.Itoa(len(existing) + 1), nil
}

// SequenceAllocator draws ids from a durable named counter, so ids are
// never reused even after the newest record is deleted.
type SequenceAllocator struct {
	Seqs *store.Sequences
}

func (a SequenceAllocator) Allocate(ctx context.Context, collection string, existing []string) (string, error) {
	// Files written before the counter existed may already hold larger ids.
	if err := a.Seqs.Advance(ctx, collection, maxNumericID(existing)); err != nil {
		return "", fmt.Errorf("advance %s sequence: %w", collection, err)
	}

	live := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		live[id] = struct{}{}
	}
	for {
		n, err := a.Seqs.Next(ctx, collection)
		if err != nil {
			return "", fmt.Errorf("next %s id: %w", collection, err)
		}
		id := strconv.FormatInt(n, 10)
		if _, taken := live[id]; !taken {
			return id, nil
		}
	}
}

func maxNumericID(ids []string) int64 {
	var hi int64
	for _, id := range ids {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil && n > hi {
			hi = n
		}
	}
	return hi
}
