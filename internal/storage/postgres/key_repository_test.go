package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hoyechan/k-cse-diy-server/internal/domain"
	"github.com/hoyechan/k-cse-diy-server/internal/testutil"
)

func TestKeyRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewKeyRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("Get returns ErrKeyNotFound when nothing is seeded", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		_, err := repo.Get(ctx)
		if err != domain.ErrKeyNotFound {
			t.Fatalf("expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("EnsureKey seeds exactly once", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		first := uuid.NewString()
		if err := repo.EnsureKey(ctx, first, time.Now().UTC()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := repo.EnsureKey(ctx, uuid.NewString(), time.Now().UTC()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		key, err := repo.Get(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if key.ID != first || key.Status != domain.KeyStatusAvailable || key.Holder != nil {
			t.Fatalf("unexpected key: %+v", key)
		}
	})

	t.Run("SetCustody records holder and GetForUpdate resolves it", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		studentID := testutil.InsertStudent(t, ctx, pool, "Doe", "20260001")
		keyID := testutil.InsertKey(t, ctx, pool, nil, domain.KeyStatusAvailable)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			if err := repo.SetCustody(txCtx, keyID, &studentID, domain.KeyStatusInUse); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			key, err := repo.GetForUpdate(txCtx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if key.Status != domain.KeyStatusInUse {
				t.Fatalf("unexpected status: %v", key.Status)
			}
			if key.Holder == nil || key.Holder.ID != studentID || key.Holder.Name != "Doe" {
				t.Fatalf("unexpected holder: %+v", key.Holder)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("tx failed: %v", err)
		}

		err = repo.SetCustody(ctx, uuid.NewString(), nil, domain.KeyStatusAvailable)
		if err != domain.ErrKeyNotFound {
			t.Fatalf("expected ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("history lists newest first", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		now := time.Now().UTC()
		entries := []domain.KeyHistoryEntry{
			{StudentName: "Doe", StudentNumber: "20260001", Status: domain.KeyStatusInUse, OccurredAt: now},
			{StudentName: "Doe", StudentNumber: "20260001", Status: domain.KeyStatusAvailable, OccurredAt: now.Add(time.Hour)},
		}
		for _, entry := range entries {
			if err := repo.AppendHistory(ctx, entry); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}

		got, err := repo.ListHistory(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(got))
		}
		if got[0].Status != domain.KeyStatusAvailable || got[1].Status != domain.KeyStatusInUse {
			t.Fatalf("unexpected order: %+v", got)
		}
	})
}
