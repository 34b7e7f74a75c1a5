package querybuilder

import (
	"reflect"
	"testing"
)

func TestSelect_PredicatesKeepInsertionOrder(t *testing.T) {
	q, args := Select{
		Columns: []string{"id", "revenue"},
		From:    "dashboard_metrics",
		Where: Where{
			Gte("date", "2024-01-01"),
			Lte("date", "2024-01-31"),
			Eq("product_category", "Books"),
			Eq("region", "West"),
		},
		OrderBy: []string{"date DESC", "id DESC"},
		Limit:   1000,
	}.Build()

	want := "SELECT id, revenue FROM dashboard_metrics WHERE date >= $1 AND date <= $2 AND product_category = $3 AND region = $4 ORDER BY date DESC, id DESC LIMIT $5"
	if q != want {
		t.Fatalf("query mismatch\n got: %s\nwant: %s", q, want)
	}

	wantArgs := []any{"2024-01-01", "2024-01-31", "Books", "West", 1000}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Fatalf("args mismatch: got %v want %v", args, wantArgs)
	}
}

func TestSelect_NoPredicatesNoLimit(t *testing.T) {
	q, args := Select{
		Columns: []string{"COUNT(*)"},
		From:    "dashboard_metrics",
	}.Build()

	if q != "SELECT COUNT(*) FROM dashboard_metrics" {
		t.Fatalf("unexpected query: %s", q)
	}
	if len(args) != 0 {
		t.Fatalf("expected no args, got %v", args)
	}
}

func TestSelect_SkippedPredicateRenumbers(t *testing.T) {
	// only category present: it must become $1, not $3
	q, args := Select{
		Columns: []string{"product_category", "SUM(revenue)"},
		From:    "dashboard_metrics",
		Where:   Where{Eq("product_category", "Sports")},
		GroupBy: []string{"product_category"},
	}.Build()

	want := "SELECT product_category, SUM(revenue) FROM dashboard_metrics WHERE product_category = $1 GROUP BY product_category"
	if q != want {
		t.Fatalf("query mismatch\n got: %s\nwant: %s", q, want)
	}
	if len(args) != 1 || args[0] != "Sports" {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestSelect_InjectionPayloadStaysInArgs(t *testing.T) {
	payload := "'; DROP TABLE users; --"

	q, args := Select{
		Columns: []string{"id"},
		From:    "dashboard_metrics",
		Where:   Where{Eq("product_category", payload)},
	}.Build()

	if q != "SELECT id FROM dashboard_metrics WHERE product_category = $1" {
		t.Fatalf("payload leaked into SQL: %s", q)
	}
	if args[0] != payload {
		t.Fatalf("payload not bound as arg: %v", args)
	}
}

func TestUpdate_ScaleWithPredicates(t *testing.T) {
	q, args, err := Update{
		Table: "dashboard_metrics",
		Set:   []Assignment{Scale("revenue", 0.9), Scale("profit", 0.7)},
		Where: Where{Eq("product_category", "Clothing"), Eq("region", "North")},
	}.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	want := "UPDATE dashboard_metrics SET revenue = revenue * $1, profit = profit * $2 WHERE product_category = $3 AND region = $4"
	if q != want {
		t.Fatalf("query mismatch\n got: %s\nwant: %s", q, want)
	}

	wantArgs := []any{0.9, 0.7, "Clothing", "North"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Fatalf("args mismatch: got %v want %v", args, wantArgs)
	}
}

func TestUpdate_SetAndNoWhere(t *testing.T) {
	q, args, err := Update{
		Table: "dashboard_metrics",
		Set:   []Assignment{Set("region", "East")},
	}.Build()
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if q != "UPDATE dashboard_metrics SET region = $1" {
		t.Fatalf("unexpected query: %s", q)
	}
	if len(args) != 1 {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestUpdate_RequiresAssignments(t *testing.T) {
	if _, _, err := (Update{Table: "dashboard_metrics"}).Build(); err == nil {
		t.Fatalf("expected error for empty SET list")
	}
}
