package handlers_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/geocoder89/bidashboard/internal/domain/metric"
	"github.com/geocoder89/bidashboard/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

type bindDetails struct {
	JSON   string                `json:"json"`
	Field  string                `json:"field"`
	Fields []handlers.FieldError `json:"fields"`
}

func addRecordRouter() *gin.Engine {
	r := gin.New()
	r.POST("/records", func(ctx *gin.Context) {
		var req metric.AddRecordRequest
		if !handlers.BindJSON(ctx, &req) {
			return
		}
		ctx.Status(http.StatusCreated)
	})
	return r
}

func TestBindJSON_ValidationErrorsUseJSONFieldNames(t *testing.T) {
	w := do(t, addRecordRouter(), http.MethodPost, "/records", `{"date":"14/03/2024","revenue":-5}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	env := decode(t, w)
	if env.Status != "error" {
		t.Fatalf("unexpected status: %s", env.Status)
	}

	var details bindDetails
	if err := json.Unmarshal(env.Details, &details); err != nil {
		t.Fatalf("bad details: %v", err)
	}

	wantRules := map[string]string{
		"date":             "datetime",
		"revenue":          "gt",
		"units_sold":       "required",
		"cost_of_goods":    "required",
		"product_category": "required",
		"region":           "required",
	}

	found := map[string]handlers.FieldError{}
	for _, fieldErr := range details.Fields {
		found[fieldErr.Field] = fieldErr
	}

	for field, rule := range wantRules {
		fieldErr, ok := found[field]
		if !ok {
			t.Fatalf("missing field error for %q: %+v", field, details.Fields)
		}
		if fieldErr.Rule != rule {
			t.Fatalf("field %q rule mismatch: got %q want %q", field, fieldErr.Rule, rule)
		}
		if fieldErr.Message == "" {
			t.Fatalf("field %q should include a non-empty message", field)
		}
	}
}

func TestBindJSON_TypeMismatchUsesJSONFieldNames(t *testing.T) {
	body := `{"date":"2024-03-14","revenue":100,"units_sold":"ten","cost_of_goods":40,"product_category":"Books","region":"North"}`
	w := do(t, addRecordRouter(), http.MethodPost, "/records", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, http.StatusBadRequest, w.Body.String())
	}

	var details bindDetails
	if err := json.Unmarshal(decode(t, w).Details, &details); err != nil {
		t.Fatalf("bad details: %v", err)
	}

	if details.JSON != "invalid_json_type" {
		t.Fatalf("expected invalid_json_type, got %q", details.JSON)
	}
	if details.Field != "units_sold" {
		t.Fatalf("expected detail field to be units_sold, got %q", details.Field)
	}
	if len(details.Fields) == 0 || details.Fields[0].Rule != "type" {
		t.Fatalf("expected a type field error, got %+v", details.Fields)
	}
}

func TestBindJSON_EmptyBody(t *testing.T) {
	w := do(t, addRecordRouter(), http.MethodPost, "/records", "")

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}
	if msg := decode(t, w).Message; msg != "Request body is required" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestBindOptionalJSON_EmptyBodyAppliesDefaults(t *testing.T) {
	r := gin.New()
	r.POST("/generate", func(ctx *gin.Context) {
		var req metric.GenerateRequest
		if !handlers.BindOptionalJSON(ctx, &req) {
			return
		}
		ctx.JSON(http.StatusOK, req.Normalize())
	})

	w := do(t, r, http.MethodPost, "/generate", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var got metric.BulkRequest
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Records != metric.DefaultBulkRecords || got.Scenario != metric.DefaultBulkMode {
		t.Fatalf("defaults not applied: %+v", got)
	}

	w = do(t, r, http.MethodPost, "/generate", `{"scenario":"boom"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want 400", w.Code)
	}

	// an explicit zero is not the same as an omitted count
	w = do(t, r, http.MethodPost, "/generate", `{"records":0}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d for records=0, want 400", w.Code)
	}
	if !strings.Contains(string(decode(t, w).Details), `"field":"records"`) {
		t.Fatalf("expected a records field error: %s", w.Body.String())
	}
}
