package otpstore_test

import (
	"testing"
	"time"

	otpstore "github.com/dalemusser/drshaadi/internal/app/store/otps"
	"github.com/dalemusser/drshaadi/internal/app/system/indexes"
	"github.com/dalemusser/drshaadi/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Upsert_RefreshesInPlace(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	store := otpstore.New(db)

	first, err := store.Upsert(ctx, "98765 43210", "hash-1", time.Now().Add(5*time.Minute))
	if err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}
	if first.MobileNumber != "9876543210" {
		t.Errorf("MobileNumber: got %q, want %q", first.MobileNumber, "9876543210")
	}
	if first.IsVerified {
		t.Error("new record should be unverified")
	}

	if err := store.IncrementAttempts(ctx, first.ID); err != nil {
		t.Fatalf("IncrementAttempts failed: %v", err)
	}

	second, err := store.Upsert(ctx, "9876543210", "hash-2", time.Now().Add(5*time.Minute))
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected the pending record to be refreshed in place, got new id %v", second.ID)
	}
	if second.CodeHash != "hash-2" {
		t.Errorf("CodeHash: got %q, want %q", second.CodeHash, "hash-2")
	}
	if second.Attempts != 0 {
		t.Errorf("Attempts: got %d, want 0", second.Attempts)
	}

	n, err := db.Collection("otps").CountDocuments(ctx, bson.M{"mobile_number": "9876543210"})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 1 {
		t.Errorf("record count: got %d, want 1", n)
	}
}

func TestStore_Upsert_AfterVerifyCreatesNewRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := otpstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	verified := fixtures.CreateVerifiedOTP(ctx, "9000000001", time.Now())

	fresh, err := store.Upsert(ctx, "9000000001", "hash", time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if fresh.ID == verified.ID {
		t.Error("verified record must not be reused")
	}
}

func TestStore_FindPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := otpstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.FindPending(ctx, "9000000002"); err != mongo.ErrNoDocuments {
		t.Errorf("no record: got %v, want mongo.ErrNoDocuments", err)
	}

	created := fixtures.CreateOTP(ctx, "9000000002", "1234", time.Now().Add(time.Minute))
	got, err := store.FindPending(ctx, "9000000002")
	if err != nil {
		t.Fatalf("FindPending failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("got %v, want %v", got.ID, created.ID)
	}
}

func TestStore_MarkVerified_OnlyOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := otpstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	otp := fixtures.CreateOTP(ctx, "9000000003", "1234", time.Now().Add(time.Minute))

	ok, err := store.MarkVerified(ctx, otp.ID)
	if err != nil {
		t.Fatalf("MarkVerified failed: %v", err)
	}
	if !ok {
		t.Fatal("first MarkVerified should succeed")
	}

	ok, err = store.MarkVerified(ctx, otp.ID)
	if err != nil {
		t.Fatalf("second MarkVerified failed: %v", err)
	}
	if ok {
		t.Error("second MarkVerified should report false")
	}

	if _, err := store.FindPending(ctx, "9000000003"); err != mongo.ErrNoDocuments {
		t.Errorf("verified record should not be pending, got err %v", err)
	}
}

func TestStore_VerifiedSince(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	store := otpstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now()
	fixtures.CreateVerifiedOTP(ctx, "9000000004", now.Add(-30*time.Minute))

	tests := []struct {
		name  string
		since time.Time
		want  bool
	}{
		{"inside window", now.Add(-time.Hour), true},
		{"outside window", now.Add(-10 * time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.VerifiedSince(ctx, "9000000004", tt.since)
			if err != nil {
				t.Fatalf("VerifiedSince failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	// A pending record is not proof of verification.
	fixtures.CreateOTP(ctx, "9000000005", "1234", now.Add(time.Minute))
	got, err := store.VerifiedSince(ctx, "9000000005", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("VerifiedSince failed: %v", err)
	}
	if got {
		t.Error("pending record should not count as verified")
	}
}
