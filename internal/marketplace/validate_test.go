package marketplace_test

import (
	"errors"
	"strings"
	"testing"

	"jobsync/marketplace-service/internal/marketplace"
)

func validJob() marketplace.Job {
	return marketplace.Job{
		Title:    "Landing page redesign",
		Category: "design",
		Deadline: marketplace.NewDate(2026, 12, 1),
		MinPrice: 100,
		MaxPrice: 400,
		Buyer:    marketplace.Buyer{Email: "buyer@example.com", Name: "Buyer"},
	}
}

func TestValidateJob_OK(t *testing.T) {
	j := validJob()
	j.Title = "  padded  "
	if err := marketplace.ValidateJob(&j); err != nil {
		t.Fatalf("ValidateJob: %v", err)
	}
	if j.Title != "padded" {
		t.Errorf("title not trimmed: %q", j.Title)
	}
}

func TestValidateJob_MissingFields(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*marketplace.Job)
		field string
	}{
		{"title", func(j *marketplace.Job) { j.Title = "   " }, "title"},
		{"category", func(j *marketplace.Job) { j.Category = "" }, "category"},
		{"buyer email", func(j *marketplace.Job) { j.Buyer.Email = "" }, "buyer.email"},
		{"malformed buyer email", func(j *marketplace.Job) { j.Buyer.Email = "nope" }, "buyer.email"},
		{"deadline", func(j *marketplace.Job) { j.Deadline = marketplace.Date{} }, "deadline"},
		{"price range", func(j *marketplace.Job) { j.MaxPrice = 10 }, "max_price"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			j := validJob()
			c.edit(&j)
			err := marketplace.ValidateJob(&j)
			var ve *marketplace.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error = %v, want ValidationError", err)
			}
			if !strings.Contains(ve.Msg, c.field) {
				t.Errorf("message %q does not name %q", ve.Msg, c.field)
			}
		})
	}
}

func TestValidateBid(t *testing.T) {
	b := marketplace.Bid{JobID: marketplace.NewID(), Email: "bidder@example.com", Price: 50}
	if err := marketplace.ValidateBid(&b); err != nil {
		t.Fatalf("ValidateBid: %v", err)
	}

	b.JobID = "not-a-uuid"
	var ve *marketplace.ValidationError
	if err := marketplace.ValidateBid(&b); !errors.As(err, &ve) || !strings.Contains(ve.Msg, "jobId") {
		t.Errorf("bad jobId: err = %v", err)
	}
}

func TestParseID(t *testing.T) {
	id := marketplace.NewID()
	got, err := marketplace.ParseID(strings.ToUpper(id))
	if err != nil {
		t.Fatalf("ParseID: %v", err)
	}
	if got != id {
		t.Errorf("ParseID = %q, want canonical %q", got, id)
	}
	for _, bad := range []string{"", "123", "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz", "65f1c0ffee0000000000beef"} {
		if _, err := marketplace.ParseID(bad); !errors.Is(err, marketplace.ErrInvalidID) {
			t.Errorf("ParseID(%q) err = %v, want ErrInvalidID", bad, err)
		}
	}
}

func TestStorageError_Chain(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := marketplace.StorageError("jobs.list", cause)
	if !errors.Is(err, marketplace.ErrStorageUnavailable) || !errors.Is(err, cause) {
		t.Errorf("StorageError lost its chain: %v", err)
	}
}
