package services

import (
	"context"
	"errors"
	"testing"

	"lifedash/internal/core"
)

type fakePublisher struct {
	published []int64
	err       error
}

func (f *fakePublisher) PublishTransactionCreated(ctx context.Context, id int64, source string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, id)
	return nil
}

func validTx() core.Transaction {
	return core.Transaction{
		Type:        core.Expense,
		Amount:      core.Money{Cents: 1500},
		Date:        date(2024, 4, 20),
		Description: "groceries",
	}
}

func TestCreateTransaction_PublishesEvent(t *testing.T) {
	store := &fakeTxCreator{}
	pub := &fakePublisher{}
	svc := NewTransactionService(store, pub)

	id, err := svc.CreateTransaction(context.Background(), validTx())
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if len(pub.published) != 1 || pub.published[0] != id {
		t.Errorf("published = %v, want [%d]", pub.published, id)
	}
	if store.created[0].Source != core.SourceManual {
		t.Errorf("source = %q, want manual default", store.created[0].Source)
	}
}

func TestCreateTransaction_PublishFailureIsNotFatal(t *testing.T) {
	store := &fakeTxCreator{}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewTransactionService(store, pub)

	if _, err := svc.CreateTransaction(context.Background(), validTx()); err != nil {
		t.Errorf("CreateTransaction() error = %v, want nil despite publish failure", err)
	}
	if len(store.created) != 1 {
		t.Errorf("created = %d, want 1", len(store.created))
	}
}

func TestCreateTransaction_NilPublisher(t *testing.T) {
	svc := NewTransactionService(&fakeTxCreator{}, nil)
	if _, err := svc.CreateTransaction(context.Background(), validTx()); err != nil {
		t.Errorf("CreateTransaction() error = %v, want nil", err)
	}
}

func TestCreateTransaction_Invalid(t *testing.T) {
	svc := NewTransactionService(&fakeTxCreator{}, nil)
	bad := validTx()
	bad.Amount.Cents = 0
	if _, err := svc.CreateTransaction(context.Background(), bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("CreateTransaction() error = %v, want ErrInvalidAmount", err)
	}
}
