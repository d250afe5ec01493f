package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"payflow/internal/models"
)

func testPayment(key string) *models.Payment {
	return &models.Payment{
		UserID:         "u1",
		OrderID:        "o1",
		OrderType:      models.OrderTypeProduct,
		Amount:         100,
		Currency:       "INR",
		Status:         models.PaymentStatusCreated,
		Provider:       models.ProviderCard,
		PaymentMethod:  models.MethodCard,
		IdempotencyKey: key,
	}
}

func TestCreatePaymentDuplicateKey(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	if err := ledger.CreatePayment(ctx, testPayment("k1")); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := ledger.CreatePayment(ctx, testPayment("k1"))
	if !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("second create err = %v; want ErrDuplicateKey", err)
	}
	if err := ledger.CreatePayment(ctx, testPayment("k2")); err != nil {
		t.Errorf("distinct key create: %v", err)
	}
}

func TestCreatePaymentConcurrentSingleWinner(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	const racers = 20
	var created, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ledger.CreatePayment(ctx, testPayment("race"))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, ErrDuplicateKey):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("created = %d; want exactly 1", created.Load())
	}
	if rejected.Load() != racers-1 {
		t.Errorf("rejected = %d; want %d", rejected.Load(), racers-1)
	}
}

func TestGetPaymentByIdempotencyKey(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	p := testPayment("k1")
	if err := ledger.CreatePayment(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := ledger.GetPaymentByIdempotencyKey(ctx, "k1")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("id = %s; want %s", got.ID, p.ID)
	}

	if _, err := ledger.GetPaymentByIdempotencyKey(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing key err = %v; want ErrNotFound", err)
	}
}

func TestNextAttemptNo(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	p := testPayment("k1")
	if err := ledger.CreatePayment(ctx, p); err != nil {
		t.Fatal(err)
	}

	for want := 1; want <= 3; want++ {
		got, err := ledger.NextAttemptNo(ctx, p.ID)
		if err != nil {
			t.Fatalf("NextAttemptNo: %v", err)
		}
		if got != want {
			t.Errorf("attempt no = %d; want %d", got, want)
		}
	}

	if _, err := ledger.NextAttemptNo(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing payment err = %v; want ErrNotFound", err)
	}
}

func TestNextAttemptNoConcurrent(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	p := testPayment("k1")
	if err := ledger.CreatePayment(ctx, p); err != nil {
		t.Fatal(err)
	}

	const callers = 50
	seen := make([]int, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := ledger.NextAttemptNo(ctx, p.ID)
			if err != nil {
				t.Errorf("NextAttemptNo: %v", err)
				return
			}
			seen[i] = n
		}(i)
	}
	wg.Wait()

	// Every caller must see a distinct number in 1..callers
	used := make(map[int]bool, callers)
	for _, n := range seen {
		if n < 1 || n > callers {
			t.Errorf("attempt no %d out of range", n)
		}
		if used[n] {
			t.Errorf("attempt no %d handed out twice", n)
		}
		used[n] = true
	}
}

func TestUpdatePaymentNotFound(t *testing.T) {
	ledger := NewMemoryLedger()

	p := testPayment("k1")
	p.ID = "never-created"
	if err := ledger.UpdatePayment(context.Background(), p); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v; want ErrNotFound", err)
	}
}

func TestReadsReturnCopies(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	p := testPayment("k1")
	if err := ledger.CreatePayment(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, _ := ledger.GetPayment(ctx, p.ID)
	got.Status = models.PaymentStatusFailed

	again, _ := ledger.GetPayment(ctx, p.ID)
	if again.Status != models.PaymentStatusCreated {
		t.Errorf("stored payment mutated through a read copy: %s", again.Status)
	}
}

func TestSumSucceededRefunds(t *testing.T) {
	ledger := NewMemoryLedger()
	ctx := context.Background()

	p := testPayment("k1")
	if err := ledger.CreatePayment(ctx, p); err != nil {
		t.Fatal(err)
	}

	for _, r := range []*models.Refund{
		{PaymentID: p.ID, Amount: 30, Status: models.RefundStatusSuccess},
		{PaymentID: p.ID, Amount: 20, Status: models.RefundStatusSuccess},
		{PaymentID: p.ID, Amount: 50, Status: models.RefundStatusFailed},
		{PaymentID: "other", Amount: 99, Status: models.RefundStatusSuccess},
	} {
		if err := ledger.CreateRefund(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	total, err := ledger.SumSucceededRefunds(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if total != 50 {
		t.Errorf("total = %v; want 50 (failed and foreign refunds excluded)", total)
	}
}
