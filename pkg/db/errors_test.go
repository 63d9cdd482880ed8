package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/stockflow-io/stockflow-backend/pkg/errors"
)

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	if !IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "idx_inventory_sku_location"`), "") {
		t.Fatal("expected postgres duplicate key to match")
	}
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: inventory_records.sku"), "") {
		t.Fatal("expected sqlite unique failure to match")
	}
	if !IsUniqueViolation(errors.New("constraint idx_routes_pair broken"), "idx_routes_pair") {
		t.Fatal("expected named constraint to match")
	}
	if IsUniqueViolation(errors.New("connection refused"), "") {
		t.Fatal("unrelated error should not match")
	}
}

func TestIsSerializationFailure(t *testing.T) {
	t.Parallel()

	for _, msg := range []string{
		"ERROR: could not serialize access due to concurrent update (SQLSTATE 40001)",
		"ERROR: deadlock detected (SQLSTATE 40P01)",
		"database is locked",
	} {
		if !IsSerializationFailure(errors.New(msg)) {
			t.Fatalf("expected %q to classify as serialization failure", msg)
		}
	}
	if IsSerializationFailure(errors.New("record not found")) {
		t.Fatal("record not found is not a serialization failure")
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	err := ClassifyError(fmt.Errorf("query: %w", context.DeadlineExceeded), "load inventory")
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("deadline should map to dependency error, got %v", err)
	}

	err = ClassifyError(errors.New("could not serialize access"), "debit origin")
	if !pkgerrors.HasCode(err, pkgerrors.CodeConcurrentModification) {
		t.Fatalf("serialization failure should map to concurrent modification, got %v", err)
	}

	plain := errors.New("boom")
	if ClassifyError(plain, "op") != plain {
		t.Fatal("unclassified errors pass through unchanged")
	}
}
