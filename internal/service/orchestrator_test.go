package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/akylbek/payment-system/payout-service/internal/apperrors"
	"github.com/akylbek/payment-system/payout-service/internal/models"
)

func validCard() models.RecipientDetails {
	return models.RecipientDetails{"type": "card", "number": "4111111111111111"}
}

func newTestOrchestrator(repo *MockPayoutRepository, valid, accept bool, message string) (*Orchestrator, *MockGateway, *MockPublisher) {
	gw := &MockGateway{Accept: accept, Message: message}
	pub := &MockPublisher{}
	return NewOrchestrator(repo, &MockVerifier{Valid: valid}, gw, pub), gw, pub
}

func TestOrchestrator_StartProcessing(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a pending payout When started Then it transitions to processing", func(t *testing.T) {
		repo := NewMockPayoutRepository()
		id := repo.Seed(models.StatusPending, validCard())
		orch, _, _ := newTestOrchestrator(repo, true, true, "ok")

		p, started, err := orch.StartProcessing(ctx, id)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !started {
			t.Fatal("expected the transition to happen")
		}
		if p.Status != models.StatusProcessing {
			t.Errorf("expected processing, got %q", p.Status)
		}
		if repo.Status(id) != models.StatusProcessing {
			t.Errorf("expected stored status processing, got %q", repo.Status(id))
		}
	})

	t.Run("Given an already handled payout When started Then no-op without error", func(t *testing.T) {
		repo := NewMockPayoutRepository()
		id := repo.Seed(models.StatusCompleted, validCard())
		orch, _, _ := newTestOrchestrator(repo, true, true, "ok")

		p, started, err := orch.StartProcessing(ctx, id)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if started {
			t.Fatal("expected a no-op")
		}
		if p.Status != models.StatusCompleted {
			t.Errorf("expected status unchanged, got %q", p.Status)
		}
		if repo.Mutations != 0 {
			t.Errorf("expected no mutations, got %d", repo.Mutations)
		}
	})

	t.Run("Given a missing payout When started Then NotFoundError", func(t *testing.T) {
		repo := NewMockPayoutRepository()
		orch, _, _ := newTestOrchestrator(repo, true, true, "ok")

		_, _, err := orch.StartProcessing(ctx, "00000000-0000-0000-0000-000000000000")

		var notFound *apperrors.NotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("expected NotFoundError, got %T (%v)", err, err)
		}
	})

	t.Run("Given concurrent starts for one payout When raced Then exactly one wins", func(t *testing.T) {
		repo := NewMockPayoutRepository()
		id := repo.Seed(models.StatusPending, validCard())
		orch, _, _ := newTestOrchestrator(repo, true, true, "ok")

		const racers = 8
		var (
			wg           sync.WaitGroup
			mu           sync.Mutex
			startedCount int
		)
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, started, err := orch.StartProcessing(ctx, id)
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if started {
					mu.Lock()
					startedCount++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if startedCount != 1 {
			t.Errorf("expected exactly one winner, got %d", startedCount)
		}
		if repo.Mutations != 1 {
			t.Errorf("expected exactly one mutation, got %d", repo.Mutations)
		}
	})
}

func TestOrchestrator_Complete(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a processing payout When completed Then success result", func(t *testing.T) {
		repo := NewMockPayoutRepository()
		id := repo.Seed(models.StatusProcessing, validCard())
		orch, _, _ := newTestOrchestrator(repo, true, true, "ok")

		result, err := orch.Complete(ctx, id)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Success {
			t.Error("expected success")
		}
		if repo.Status(id) != models.StatusCompleted {
			t.Errorf("expected completed, got %q", repo.Status(id))
		}
	})

	t.Run("Given a terminal payout When completed Then ValidationError and unchanged record", func(t *testing.T) {
		repo := NewMockPayoutRepository()
		id := repo.Seed(models.StatusCancelled, validCard())
		orch, _, _ := newTestOrchestrator(repo, true, true, "ok")

		_, err := orch.Complete(ctx, id)

		var verr *apperrors.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %T (%v)", err, err)
		}
		if repo.Status(id) != models.StatusCancelled {
			t.Errorf("expected status unchanged, got %q", repo.Status(id))
		}
	})
}

func TestOrchestrator_Fail(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a processing payout When failed Then reason carried in result", func(t *testing.T) {
		repo := NewMockPayoutRepository()
		id := repo.Seed(models.StatusProcessing, validCard())
		orch, _, _ := newTestOrchestrator(repo, true, true, "ok")

		result, err := orch.Fail(ctx, id, "insufficient funds")

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Success {
			t.Error("expected failure result")
		}
		if result.Message != "insufficient funds" {
			t.Errorf("expected reason in message, got %q", result.Message)
		}
		if repo.Status(id) != models.StatusFailed {
			t.Errorf("expected failed, got %q", repo.Status(id))
		}
	})
}

func TestOrchestrator_RunPipeline(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a valid pending payout When pipeline runs Then completed", func(t *testing.T) {
		repo := NewMockPayoutRepository()
		id := repo.Seed(models.StatusPending, validCard())
		orch, gw, pub := newTestOrchestrator(repo, true, true, "accepted")

		result, err := orch.RunPipeline(ctx, id)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Success || result.Status != string(models.StatusCompleted) {
			t.Errorf("expected completed success, got %+v", result)
		}
		if repo.Status(id) != models.StatusCompleted {
			t.Errorf("expected stored status completed, got %q", repo.Status(id))
		}
		if gw.CallCount() != 1 {
			t.Errorf("expected one gateway call, got %d", gw.CallCount())
		}
		if len(pub.Changes) != 2 {
			t.Errorf("expected two status change events, got %v", pub.Changes)
		}
	})

	t.Run("Given invalid recipient details When pipeline runs Then failed with fixed reason", func(t *testing.T) {
		repo := NewMockPayoutRepository()
		id := repo.Seed(models.StatusPending, models.RecipientDetails{"type": "card", "number": "123"})
		orch, gw, _ := newTestOrchestrator(repo, false, true, "accepted")

		result, err := orch.RunPipeline(ctx, id)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Message != ReasonInvalidRecipient {
			t.Errorf("expected %q, got %q", ReasonInvalidRecipient, result.Message)
		}
		if repo.Status(id) != models.StatusFailed {
			t.Errorf("expected failed, got %q", repo.Status(id))
		}
		if gw.CallCount() != 0 {
			t.Errorf("expected the gateway to be skipped, got %d calls", gw.CallCount())
		}
	})

	t.Run("Given a gateway decline When pipeline runs Then failed with gateway message", func(t *testing.T) {
		repo := NewMockPayoutRepository()
		id := repo.Seed(models.StatusPending, validCard())
		orch, _, _ := newTestOrchestrator(repo, true, false, "payment gateway declined: insufficient funds")

		result, err := orch.RunPipeline(ctx, id)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Success {
			t.Error("expected failure result")
		}
		if result.Message != "payment gateway declined: insufficient funds" {
			t.Errorf("unexpected message %q", result.Message)
		}
		if repo.Status(id) != models.StatusFailed {
			t.Errorf("expected failed, got %q", repo.Status(id))
		}
	})

	t.Run("Given an already terminal payout When pipeline reruns Then skipped without mutation", func(t *testing.T) {
		repo := NewMockPayoutRepository()
		id := repo.Seed(models.StatusPending, validCard())
		orch, gw, _ := newTestOrchestrator(repo, true, true, "accepted")

		if _, err := orch.RunPipeline(ctx, id); err != nil {
			t.Fatalf("unexpected error on first run: %v", err)
		}
		mutationsAfterFirst := repo.Mutations
		callsAfterFirst := gw.CallCount()

		result, err := orch.RunPipeline(ctx, id)

		if err != nil {
			t.Fatalf("unexpected error on second run: %v", err)
		}
		if result.Status != models.ResultStatusSkipped {
			t.Errorf("expected skipped, got %q", result.Status)
		}
		if repo.Mutations != mutationsAfterFirst {
			t.Errorf("expected no further mutations, got %d extra", repo.Mutations-mutationsAfterFirst)
		}
		if gw.CallCount() != callsAfterFirst {
			t.Error("expected no further gateway calls")
		}
	})

	t.Run("Given a missing payout When pipeline runs Then skipped", func(t *testing.T) {
		repo := NewMockPayoutRepository()
		orch, _, _ := newTestOrchestrator(repo, true, true, "accepted")

		result, err := orch.RunPipeline(ctx, "00000000-0000-0000-0000-000000000000")

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != models.ResultStatusSkipped {
			t.Errorf("expected skipped, got %q", result.Status)
		}
	})
}
